package graph

import "sort"

// Complexity buckets.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// Centrality is the degree-centrality summary of a graph.
type Centrality struct {
	Degrees       map[string]int `json:"degrees"`
	MaxDegree     int            `json:"maxDegree"`
	MostConnected []string       `json:"mostConnected"`
	MeanDegree    float64        `json:"meanDegree"`
}

// Analysis holds the statistics reported for a graph.
type Analysis struct {
	NodeCount       int              `json:"nodeCount"`
	EdgeCount       int              `json:"edgeCount"`
	NodesByCategory map[Category]int `json:"nodesByCategory"`
	Density         float64          `json:"density"`
	Centrality      Centrality       `json:"centrality"`
	Complexity      string           `json:"complexity"`
}

// Analyze computes node counts, density, degree centrality and a complexity
// label.
func Analyze(g *Graph) Analysis {
	a := Analysis{
		NodesByCategory: make(map[Category]int, len(Categories)),
	}
	if g == nil {
		a.Complexity = ComplexityLow
		a.Centrality.Degrees = map[string]int{}
		return a
	}

	for _, c := range Categories {
		a.NodesByCategory[c] = 0
	}
	for _, n := range g.Nodes {
		a.NodesByCategory[n.Category]++
	}

	a.NodeCount = len(g.Nodes)
	a.EdgeCount = len(g.Edges)
	a.Density = Density(a.NodeCount, a.EdgeCount)
	a.Centrality = DegreeCentrality(g)
	a.Complexity = ComplexityLabel(a.NodeCount, a.EdgeCount)
	return a
}

// Density returns 2|E| / (|N|(|N|-1)), or 0 when n <= 1.
func Density(nodes, edges int) float64 {
	if nodes <= 1 {
		return 0
	}
	return float64(2*edges) / float64(nodes*(nodes-1))
}

// DegreeCentrality counts in-degree plus out-degree per node. Both endpoints
// of every edge are counted, dangling ones included, so a dangling id shows
// up in Degrees. MeanDegree averages over the graph's nodes.
func DegreeCentrality(g *Graph) Centrality {
	c := Centrality{Degrees: make(map[string]int, len(g.Nodes))}
	for _, n := range g.Nodes {
		c.Degrees[n.ID] = 0
	}
	for _, e := range g.Edges {
		c.Degrees[e.From]++
		c.Degrees[e.To]++
	}

	total := 0
	for _, n := range g.Nodes {
		total += c.Degrees[n.ID]
	}
	if len(g.Nodes) > 0 {
		c.MeanDegree = float64(total) / float64(len(g.Nodes))
	}

	for id, d := range c.Degrees {
		switch {
		case d > c.MaxDegree:
			c.MaxDegree = d
			c.MostConnected = []string{id}
		case d == c.MaxDegree && d > 0:
			c.MostConnected = append(c.MostConnected, id)
		}
	}
	sort.Strings(c.MostConnected)
	return c
}

// ComplexityLabel buckets a graph: low when n + 1.5e < 20, medium when < 100,
// high otherwise.
func ComplexityLabel(nodes, edges int) string {
	score := float64(nodes) + 1.5*float64(edges)
	switch {
	case score < 20:
		return ComplexityLow
	case score < 100:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}
