package evaluation

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/loanguard/internal/domain/risk"
)

func TestReport_ProfileAccuracy(t *testing.T) {
	Convey("Given a profile with one failed and three scored samples", t, func() {
		r := newReport(3)
		low := risk.Result{RiskClass: risk.Low}
		high := risk.Result{RiskClass: risk.High}
		r.add("good_spender", int(risk.Low), risk.Result{}, errors.New("timeout"))
		r.add("good_spender", int(risk.Low), low, nil)
		r.add("good_spender", int(risk.Low), low, nil)
		r.add("good_spender", int(risk.Low), high, nil)
		r.finish(time.Second)

		Convey("Then profile and overall accuracy should share the scored denominator", func() {
			ps := r.Profiles["good_spender"]
			So(ps.Samples, ShouldEqual, 4)
			So(ps.Scored, ShouldEqual, 3)
			So(ps.Accuracy, ShouldEqual, 0.6667)
			So(r.Accuracy, ShouldEqual, ps.Accuracy)
		})
	})
}

func TestROCAUC(t *testing.T) {
	Convey("Given two classes with one mis-ordered pair", t, func() {
		samples := []scoredSample{
			{label: 0, probs: [risk.NumClasses]float64{0.9, 0.1, 0}},
			{label: 0, probs: [risk.NumClasses]float64{0.6, 0.4, 0}},
			{label: 1, probs: [risk.NumClasses]float64{0.65, 0.35, 0}},
			{label: 1, probs: [risk.NumClasses]float64{0.2, 0.8, 0}},
		}

		Convey("Then the one-vs-rest area should count ordered pairs", func() {
			auc, positives, ok := rocAUC(samples, 1)
			So(ok, ShouldBeTrue)
			So(positives, ShouldEqual, 2)
			So(auc, ShouldAlmostEqual, 0.75, 1e-12)
		})

		Convey("Then a class with no positives should be left out", func() {
			_, _, ok := rocAUC(samples, 2)
			So(ok, ShouldBeFalse)
			So(weightedROCAUC(samples), ShouldEqual, 0.75)
		})
	})

	Convey("Given tied scores across a positive and a negative", t, func() {
		samples := []scoredSample{
			{label: 0, probs: [risk.NumClasses]float64{0.5, 0.5, 0}},
			{label: 1, probs: [risk.NumClasses]float64{0.5, 0.5, 0}},
		}

		Convey("Then the tie should count as half", func() {
			auc, _, ok := rocAUC(samples, 0)
			So(ok, ShouldBeTrue)
			So(auc, ShouldEqual, 0.5)
		})
	})
}

func TestClassificationReport(t *testing.T) {
	Convey("Given a confusion matrix with some Medium borrowers called Low", t, func() {
		cm := [risk.NumClasses][risk.NumClasses]int{
			{8, 0, 0},
			{2, 6, 0},
			{0, 0, 4},
		}
		rep := classificationReport(&cm)

		Convey("Then per-tier precision and recall should follow the columns and rows", func() {
			So(rep, ShouldHaveLength, risk.NumClasses+2)
			So(rep[risk.Low].Precision, ShouldEqual, 0.8)
			So(rep[risk.Low].Recall, ShouldEqual, 1.0)
			So(rep[risk.Low].F1, ShouldEqual, 0.8889)
			So(rep[risk.Medium].Precision, ShouldEqual, 1.0)
			So(rep[risk.Medium].Recall, ShouldEqual, 0.75)
			So(rep[risk.Medium].Support, ShouldEqual, 8)
			So(rep[risk.High].F1, ShouldEqual, 1.0)
		})

		Convey("Then the averages should cover every labeled sample", func() {
			macro, weighted := rep[risk.NumClasses], rep[risk.NumClasses+1]
			So(macro.Class, ShouldEqual, "macro avg")
			So(macro.Support, ShouldEqual, 20)
			So(macro.Recall, ShouldEqual, 0.9167)
			So(weighted.Recall, ShouldEqual, 0.9)
		})
	})
}
