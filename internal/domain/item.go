package domain

import "time"

// UncategorizedTag is assigned to items that declare no category.
const UncategorizedTag = "uncategorized"

// Item is a core entity describing a candidate article produced by the
// ingestion pipeline. The curation engine treats items as read-only.
type Item struct {
	ID           int64
	Title        string
	URL          string
	Source       string
	Categories   []string
	PublishedAt  time.Time // zero value means the publish time is unknown
	UrgencyScore float64   // 0..100
	ImpactScore  float64   // 0..100
	Embedding    []float64 // nil until computed by the summarization pipeline
	Similarity   float64   // transient similarity to a reference, -1..1
}

// CategorySet returns the item's declared categories, falling back to the
// uncategorized tag when none are declared.
func (i Item) CategorySet() []string {
	if len(i.Categories) == 0 {
		return []string{UncategorizedTag}
	}
	return i.Categories
}

// Cluster is an ordered group of similar items. The first item leads and
// determines the cluster's category and rank; the rest are related items.
// Clusters live only within a single curation pass.
type Cluster struct {
	Items []Item
}

// Lead returns the cluster's lead item; ok is false for an empty cluster.
func (c Cluster) Lead() (Item, bool) {
	if len(c.Items) == 0 {
		return Item{}, false
	}
	return c.Items[0], true
}

// Size returns the number of items in the cluster, lead included.
func (c Cluster) Size() int {
	return len(c.Items)
}

// TimeWindow bounds a candidate search to [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CurationRequest carries all parameters for a single curation pass.
type CurationRequest struct {
	Recipient           string
	Window              TimeWindow
	Categories          []string // optional allow-list
	Sources             []string // optional allow-list
	MaxPerCategory      int
	TopK                int
	SimilarityThreshold float64
	MaxClusters         int
	RecipientEmbedding  []float64 // nil when the recipient has no profile yet
}
