// Package insight turns a profile and feature scores into the narrative
// sections and JSON artifacts consumed by slide renderers.
package insight

import "strings"

// Bucket is one threshold rule: it applies when a value is strictly
// greater than Above. The last bucket of a table is the fallback and its
// Above is ignored.
type Bucket struct {
	Above float64
	Label string
	Line  string
}

// Pick returns the first bucket whose threshold v exceeds, or the last one.
func Pick(table []Bucket, v float64) Bucket {
	for _, b := range table[:len(table)-1] {
		if v > b.Above {
			return b
		}
	}
	return table[len(table)-1]
}

// QualityRating rates completeness.
var QualityRating = []Bucket{
	{Above: 95, Label: "Excellent"},
	{Above: 85, Label: "Good"},
	{Above: 70, Label: "Fair"},
	{Label: "Poor"},
}

// DataScale buckets the row count.
var DataScale = []Bucket{
	{Above: 10000, Label: "Large-scale", Line: "Large-scale dataset for enterprise insights"},
	{Above: 1000, Label: "Medium-scale", Line: "Medium-scale dataset for departmental analysis"},
	{Label: "Focused", Line: "Focused dataset for targeted analysis"},
}

// VariableRichness buckets the column count.
var VariableRichness = []Bucket{
	{Above: 20, Label: "Rich", Line: "Rich feature set for comprehensive analysis"},
	{Above: 10, Label: "Adequate", Line: "Adequate variables for detailed insights"},
	{Label: "Focused", Line: "Focused variable set for specific analysis"},
}

// Reliability buckets completeness for business use.
var Reliability = []Bucket{
	{Above: 90, Label: "High", Line: "High reliability for business decisions"},
	{Above: 75, Label: "Moderate", Line: "Moderate reliability with some limitations"},
	{Label: "Limited", Line: "Requires data cleaning for optimal use"},
}

// ApplicationRule maps keywords found in the file or column names to
// suggested applications. A rule without keywords always matches.
type ApplicationRule struct {
	Name     string
	Keywords []string
	Lines    []string
}

// Applications is evaluated top to bottom; the first match wins.
var Applications = []ApplicationRule{
	{
		Name:     "sales",
		Keywords: []string{"sales", "revenue", "price", "cost"},
		Lines:    []string{"Sales performance analysis", "Revenue optimization studies", "Pricing strategy development"},
	},
	{
		Name:     "customer",
		Keywords: []string{"customer", "client", "user"},
		Lines:    []string{"Customer behavior analysis", "Market segmentation studies", "Customer lifetime value modeling"},
	},
	{
		Name:     "workforce",
		Keywords: []string{"employee", "staff", "hr", "payroll"},
		Lines:    []string{"Workforce analytics", "Performance management insights", "HR optimization strategies"},
	},
	{
		Name:  "exploratory",
		Lines: []string{"Exploratory data analysis", "Pattern recognition studies", "Statistical modeling projects", "Business intelligence reporting"},
	},
}

// MatchApplication returns the first rule with a keyword contained in the
// file name or any column name, compared case-insensitively.
func MatchApplication(rules []ApplicationRule, fileName string, columns []string) (ApplicationRule, bool) {
	haystack := make([]string, 0, len(columns)+1)
	haystack = append(haystack, strings.ToLower(fileName))
	for _, c := range columns {
		haystack = append(haystack, strings.ToLower(c))
	}
	for _, r := range rules {
		if len(r.Keywords) == 0 {
			return r, true
		}
		for _, kw := range r.Keywords {
			kw = strings.ToLower(kw)
			for _, h := range haystack {
				if strings.Contains(h, kw) {
					return r, true
				}
			}
		}
	}
	return ApplicationRule{}, false
}
