package evaluation

import (
	"math"
	"sort"
	"time"

	"github.com/okian/loanguard/internal/domain/risk"
)

// TierSummary aggregates decisions predicted into one risk tier.
type TierSummary struct {
	Class                  risk.Class `json:"risk_class"`
	Indicator              string     `json:"indicator"`
	Count                  int        `json:"count"`
	MeanDefaultProbability float64    `json:"mean_default_probability"`

	pdSum float64
}

// ProfileSummary is the per-profile hit rate. Accuracy is Correct/Scored, the
// same denominator as Report.Accuracy; failed samples count only in Samples.
type ProfileSummary struct {
	Expected risk.Class `json:"expected"`
	Samples  int        `json:"samples"`
	Scored   int        `json:"scored"`
	Correct  int        `json:"correct"`
	Accuracy float64    `json:"accuracy"`
}

// ClassMetrics holds precision, recall and F1 for one tier, or an average
// over tiers. Support is the number of labeled samples expected in the tier.
type ClassMetrics struct {
	Class     string  `json:"risk_class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// scoredSample keeps what ROC-AUC needs from one labeled outcome.
type scoredSample struct {
	label int
	probs [risk.NumClasses]float64
}

// Report summarizes one evaluation run. Confusion rows are the expected
// tier and columns the predicted tier, both indexed by class id.
type Report struct {
	Samples   int                                   `json:"samples"`
	Scored    int                                   `json:"scored"`
	Failed    int                                   `json:"failed"`
	Correct   int                                   `json:"correct"`
	Accuracy  float64                               `json:"accuracy"`
	Months    int                                   `json:"months"`
	Confusion [risk.NumClasses][risk.NumClasses]int `json:"confusion_matrix"`
	// Classes is one entry per tier followed by the macro and weighted
	// averages.
	Classes []ClassMetrics `json:"classification_report"`
	// ROCAUC is the one-vs-rest ROC-AUC averaged with support weights. Tiers
	// with no positive or no negative samples are left out of the average.
	ROCAUC   float64                    `json:"roc_auc_ovr"`
	Tiers    []TierSummary              `json:"tiers"`
	Profiles map[string]*ProfileSummary `json:"profiles"`
	Duration time.Duration              `json:"-"`
	Took     string                     `json:"took"`

	labeled []scoredSample
}

func newReport(months int) *Report {
	r := &Report{
		Months:   months,
		Tiers:    make([]TierSummary, risk.NumClasses),
		Profiles: make(map[string]*ProfileSummary),
	}
	for i := range r.Tiers {
		c := risk.Class(i)
		r.Tiers[i] = TierSummary{Class: c, Indicator: c.Indicator()}
	}
	return r
}

// add folds one outcome into the report. expected < 0 means unlabeled.
func (r *Report) add(profile string, expected int, res risk.Result, err error) {
	r.Samples++
	ps := r.Profiles[profile]
	if ps == nil {
		ps = &ProfileSummary{Expected: risk.Class(expected)}
		r.Profiles[profile] = ps
	}
	ps.Samples++

	if err != nil {
		r.Failed++
		return
	}
	r.Scored++
	ps.Scored++

	predicted := int(res.RiskClass)
	t := &r.Tiers[predicted]
	t.Count++
	t.pdSum += res.DefaultProbability

	if expected < 0 || expected >= risk.NumClasses {
		return
	}
	r.Confusion[expected][predicted]++
	r.labeled = append(r.labeled, scoredSample{label: expected, probs: res.Probabilities})
	if expected == predicted {
		r.Correct++
		ps.Correct++
	}
}

func (r *Report) finish(took time.Duration) {
	r.Duration = took
	r.Took = took.Round(time.Millisecond).String()
	r.Accuracy = ratio(r.Correct, r.Scored)
	for i := range r.Tiers {
		t := &r.Tiers[i]
		if t.Count > 0 {
			t.MeanDefaultProbability = math.Round(t.pdSum/float64(t.Count)*10) / 10
		}
	}
	for _, ps := range r.Profiles {
		ps.Accuracy = ratio(ps.Correct, ps.Scored)
	}
	r.Classes = classificationReport(&r.Confusion)
	r.ROCAUC = weightedROCAUC(r.labeled)
	r.labeled = nil
}

// classificationReport derives per-tier precision, recall and F1 from the
// confusion matrix, then appends the macro and weighted averages.
func classificationReport(cm *[risk.NumClasses][risk.NumClasses]int) []ClassMetrics {
	out := make([]ClassMetrics, 0, risk.NumClasses+2)
	var (
		macro, weighted [3]float64
		total           int
	)
	for k := 0; k < risk.NumClasses; k++ {
		var predicted, support int
		for i := 0; i < risk.NumClasses; i++ {
			predicted += cm[i][k]
			support += cm[k][i]
		}
		tp := cm[k][k]
		p := fraction(tp, predicted)
		rc := fraction(tp, support)
		f1 := 0.0
		if p+rc > 0 {
			f1 = 2 * p * rc / (p + rc)
		}
		out = append(out, ClassMetrics{
			Class:     risk.Class(k).String(),
			Precision: round4(p),
			Recall:    round4(rc),
			F1:        round4(f1),
			Support:   support,
		})
		for j, v := range [3]float64{p, rc, f1} {
			macro[j] += v
			weighted[j] += v * float64(support)
		}
		total += support
	}

	avg := func(name string, sums [3]float64, den float64) ClassMetrics {
		m := ClassMetrics{Class: name, Support: total}
		if den > 0 {
			m.Precision = round4(sums[0] / den)
			m.Recall = round4(sums[1] / den)
			m.F1 = round4(sums[2] / den)
		}
		return m
	}
	out = append(out,
		avg("macro avg", macro, risk.NumClasses),
		avg("weighted avg", weighted, float64(total)))
	return out
}

// weightedROCAUC averages one-vs-rest AUCs weighted by class support.
func weightedROCAUC(samples []scoredSample) float64 {
	var sum, weight float64
	for k := 0; k < risk.NumClasses; k++ {
		auc, positives, ok := rocAUC(samples, k)
		if !ok {
			continue
		}
		sum += auc * float64(positives)
		weight += float64(positives)
	}
	if weight == 0 {
		return 0
	}
	return round4(sum / weight)
}

// rocAUC is the area under the ROC curve for class k against the rest, in its
// rank-sum form with tied scores sharing their average rank. ok is false when
// k has no positive or no negative samples.
func rocAUC(samples []scoredSample, k int) (auc float64, positives int, ok bool) {
	type point struct {
		score    float64
		positive bool
	}
	pts := make([]point, len(samples))
	for i, s := range samples {
		pts[i] = point{score: s.probs[k], positive: s.label == k}
		if pts[i].positive {
			positives++
		}
	}
	negatives := len(pts) - positives
	if positives == 0 || negatives == 0 {
		return 0, positives, false
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].score < pts[j].score })

	var rankSum float64
	for i := 0; i < len(pts); {
		j := i
		for j < len(pts) && pts[j].score == pts[i].score {
			j++
		}
		// ranks i+1..j share their mean
		mean := float64(i+1+j) / 2
		for ; i < j; i++ {
			if pts[i].positive {
				rankSum += mean
			}
		}
	}
	pos, neg := float64(positives), float64(negatives)
	return (rankSum - pos*(pos+1)/2) / (pos * neg), positives, true
}

func fraction(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

func ratio(num, den int) float64 {
	return round4(fraction(num, den))
}
