package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// ExampleInterpretation is one line of the hand-authored cluster notes.
type ExampleInterpretation struct {
	Cluster int
	Traits  string
	Label   string
}

// ExampleInterpretations is the fixed four-cluster example text. It does not
// adapt to the loaded bundle; Describe does.
var ExampleInterpretations = []ExampleInterpretation{
	{Cluster: 0, Traits: "High danceability, high energy", Label: "Party tracks"},
	{Cluster: 1, Traits: "Low energy, high acousticness", Label: "Chill acoustic"},
	{Cluster: 2, Traits: "Medium energy & valence", Label: "Balanced mood"},
	{Cluster: 3, Traits: "Instrumental-heavy tracks", Label: "Relaxed/Focus tracks"},
}

// ExampleMarkdown renders ExampleInterpretations as a Markdown list.
func ExampleMarkdown() string {
	var sb strings.Builder
	for _, e := range ExampleInterpretations {
		fmt.Fprintf(&sb, "- **Cluster %d**: %s → %s\n", e.Cluster, e.Traits, e.Label)
	}
	return sb.String()
}

// Extreme thresholds, in standard deviations across cluster means.
const (
	extremeZ         = 0.5
	maxTraitsPerSide = 2
)

// Trait is one feature that sets a cluster apart.
type Trait struct {
	Feature string
	Mean    float64 // cluster mean of the scaled feature
	Z       float64 // standard score of Mean among all cluster means
}

// ClusterDescription is the generated interpretation of one cluster.
type ClusterDescription struct {
	Cluster int
	Mood    string
	High    []Trait
	Low     []Trait
}

// Summary renders the description as one line of prose.
func (d ClusterDescription) Summary() string {
	var parts []string
	if len(d.High) > 0 {
		parts = append(parts, "high "+traitNames(d.High))
	}
	if len(d.Low) > 0 {
		parts = append(parts, "low "+traitNames(d.Low))
	}
	if len(parts) == 0 {
		parts = append(parts, "close to the average on every feature")
	}
	return fmt.Sprintf("%s → %s", upperFirst(strings.Join(parts, ", ")), d.Mood)
}

func traitNames(ts []Trait) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Feature
	}
	return strings.Join(names, " & ")
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Describe generates one description per profile row from the features
// whose cluster mean is furthest from the mean of all clusters.
func Describe(p model.ClusterProfile) []ClusterDescription {
	z := standardize(p)
	out := make([]ClusterDescription, len(p.Clusters))
	for r, cluster := range p.Clusters {
		traits := make([]Trait, len(p.Features))
		for f, name := range p.Features {
			traits[f] = Trait{Feature: name, Mean: p.Means[r][f], Z: z[r][f]}
		}
		sort.SliceStable(traits, func(i, j int) bool { return traits[i].Z > traits[j].Z })

		d := ClusterDescription{Cluster: cluster, Mood: moodName(p, r)}
		for _, t := range traits {
			if t.Z < extremeZ || len(d.High) == maxTraitsPerSide {
				break
			}
			d.High = append(d.High, t)
		}
		for i := len(traits) - 1; i >= 0; i-- {
			t := traits[i]
			if t.Z > -extremeZ || len(d.Low) == maxTraitsPerSide {
				break
			}
			d.Low = append(d.Low, t)
		}
		out[r] = d
	}
	return out
}

// DescribeMarkdown renders Describe as a Markdown list.
func DescribeMarkdown(p model.ClusterProfile) string {
	var sb strings.Builder
	for _, d := range Describe(p) {
		fmt.Fprintf(&sb, "- **Cluster %d**: %s\n", d.Cluster, d.Summary())
	}
	return sb.String()
}

// standardize converts each feature column of the profile to z-scores.
// Columns with zero spread map to 0.
func standardize(p model.ClusterProfile) [][]float64 {
	z := make([][]float64, len(p.Means))
	for r := range z {
		z[r] = make([]float64, len(p.Features))
	}
	if len(p.Means) < 2 {
		return z
	}
	col := make([]float64, len(p.Means))
	for f := range p.Features {
		for r, row := range p.Means {
			col[r] = row[f]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		for r := range col {
			z[r][f] = stat.StdScore(col[r], mean, std)
		}
	}
	return z
}

// moodName places a cluster in the energy/valence quadrant of the scaled
// feature space, with acoustic and instrumental modifiers.
func moodName(p model.ClusterProfile, r int) string {
	energy, okE := p.Value(r, "energy")
	valence, okV := p.Value(r, "valence")
	if !okE || !okV {
		return "Mixed mood"
	}

	var name string
	switch {
	case energy > 0 && valence > 0:
		name = "Upbeat party"
	case energy > 0:
		name = "Intense & dark"
	case valence > 0:
		name = "Chill & happy"
	default:
		name = "Reflective & melancholy"
	}

	if v, ok := p.Value(r, "instrumentalness"); ok && v > extremeZ {
		return name + " (instrumental focus)"
	}
	if v, ok := p.Value(r, "acousticness"); ok && v > extremeZ {
		return name + " (acoustic)"
	}
	return name
}
