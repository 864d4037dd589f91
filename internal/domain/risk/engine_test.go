package risk_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/loanguard/internal/domain/features"
	"github.com/okian/loanguard/internal/domain/risk"
	. "github.com/smartystreets/goconvey/convey"
)

func vector() features.Vector {
	v, err := features.FromValues([]float64{800, 0, 800, 0, 0, 0, 1, 0, 4})
	if err != nil {
		panic(err)
	}
	return v
}

func TestEngine_Decide(t *testing.T) {
	Convey("Given an engine with the default policy", t, func() {
		engine, err := risk.NewEngine()
		So(err, ShouldBeNil)

		Convey("When the classifier predicts Low Risk", func() {
			res, err := engine.Decide(vector(), 0, []float64{0.9, 0.08, 0.02})

			Convey("Then the borrower should be approved in full", func() {
				So(err, ShouldBeNil)
				So(res.RiskClass, ShouldEqual, risk.Low)
				So(res.RiskClass.String(), ShouldEqual, "Low Risk")
				So(res.Recommendation, ShouldEqual, "Approve loan at requested amount")
				So(res.ApprovedFraction, ShouldEqual, 1.0)
				So(res.Indicator, ShouldEqual, "✅")
				So(res.DefaultProbability, ShouldAlmostEqual, 8.1, 1e-9) // 0.9*5 + 0.08*25 + 0.02*80
				So(res.Features.Values(), ShouldResemble, vector().Values())
			})
		})

		Convey("When the classifier predicts Medium Risk", func() {
			res, err := engine.Decide(vector(), 1, []float64{0.2, 0.7, 0.1})

			Convey("Then a reduced amount should be approved", func() {
				So(err, ShouldBeNil)
				So(res.RiskClass.String(), ShouldEqual, "Medium Risk")
				So(res.Recommendation, ShouldEqual, "Approve reduced loan amount (e.g., 50% of request)")
				So(res.ApprovedFraction, ShouldEqual, 0.5)
				So(res.Indicator, ShouldEqual, "⚠️")
				So(res.DefaultProbability, ShouldAlmostEqual, 26.5, 1e-9)
				So(res.Probabilities, ShouldResemble, [risk.NumClasses]float64{0.2, 0.7, 0.1})
			})
		})

		Convey("When the classifier predicts High Risk", func() {
			res, err := engine.Decide(vector(), 2, []float64{0.05, 0.15, 0.80})

			Convey("Then the application should be rejected", func() {
				So(err, ShouldBeNil)
				So(res.RiskClass.String(), ShouldEqual, "High Risk")
				So(res.Recommendation, ShouldEqual, "Reject loan application")
				So(res.ApprovedFraction, ShouldEqual, 0.0)
				So(res.Indicator, ShouldEqual, "❌")
				So(res.DefaultProbability, ShouldAlmostEqual, 68.0, 1e-9)
			})
		})

		Convey("When the result is encoded as JSON", func() {
			res, err := engine.Decide(vector(), 2, []float64{0, 0, 1})
			So(err, ShouldBeNil)
			raw, err := json.Marshal(res)

			Convey("Then the risk class should be its label", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, `"risk_class":"High Risk"`)
				So(string(raw), ShouldContainSubstring, `"default_probability":80`)
				So(string(raw), ShouldContainSubstring, `"class_probabilities":[0,0,1]`)
				So(string(raw), ShouldContainSubstring, `"features":{"total_income":800`)
			})
		})
	})
}

func TestEngine_ContractViolations(t *testing.T) {
	Convey("Given an engine", t, func() {
		engine, err := risk.NewEngine()
		So(err, ShouldBeNil)

		cases := []struct {
			name  string
			class int
			probs []float64
		}{
			{"class above range", 3, []float64{0.1, 0.1, 0.8}},
			{"negative class", -1, []float64{0.1, 0.1, 0.8}},
			{"sum above one", 0, []float64{0.9, 0.3, 0.2}},
			{"sum below one", 0, []float64{0.5, 0.1, 0.1}},
			{"negative entry", 2, []float64{-0.1, 0.3, 0.8}},
			{"NaN entry", 1, []float64{math.NaN(), 0.5, 0.5}},
			{"infinite entry", 1, []float64{math.Inf(1), 0, 0}},
			{"too few entries", 0, []float64{1}},
			{"too many entries", 0, []float64{0.25, 0.25, 0.25, 0.25}},
		}

		for _, tc := range cases {
			tc := tc
			Convey("When the classifier output has "+tc.name, func() {
				_, err := engine.Decide(vector(), tc.class, tc.probs)

				Convey("Then it should be rejected as a contract violation", func() {
					So(errors.Is(err, risk.ErrClassifierContract), ShouldBeTrue)
				})
			})
		}

		Convey("When probabilities sum to 1.4", func() {
			_, err := engine.Decide(vector(), 0, []float64{0.9, 0.3, 0.2})

			Convey("Then nothing should be renormalized", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "sum to")
			})
		})

		Convey("When the sum drifts within the tolerance", func() {
			_, err := engine.Decide(vector(), 0, []float64{0.7, 0.2, 0.1 + 1e-9})

			Convey("Then the simplex should be accepted", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestEngine_Policy(t *testing.T) {
	Convey("Given custom policies", t, func() {
		Convey("When the reduced fraction is changed", func() {
			engine, err := risk.NewEngine(risk.WithReducedFraction(0.25))
			So(err, ShouldBeNil)
			res, err := engine.Decide(vector(), 1, []float64{0, 1, 0})

			Convey("Then the recommendation should carry the new share", func() {
				So(err, ShouldBeNil)
				So(res.ApprovedFraction, ShouldEqual, 0.25)
				So(res.Recommendation, ShouldEqual, "Approve reduced loan amount (e.g., 25% of request)")
			})
		})

		Convey("When severity weights are changed", func() {
			engine, err := risk.NewEngine(risk.WithSeverityWeights(0, 50, 100))
			So(err, ShouldBeNil)

			Convey("Then the blend should use them", func() {
				So(engine.SeverityWeights(), ShouldResemble, [3]float64{0, 50, 100})
				So(engine.DefaultProbability([]float64{0, 0.5, 0.5}), ShouldAlmostEqual, 75.0, 1e-9)
			})
		})

		Convey("When severity weights decrease with the tier", func() {
			_, err := risk.NewEngine(risk.WithSeverityWeights(50, 25, 80))
			So(errors.Is(err, risk.ErrInvalidPolicy), ShouldBeTrue)
		})

		Convey("When a severity weight exceeds 100", func() {
			_, err := risk.NewEngine(risk.WithSeverityWeights(5, 25, 120))
			So(errors.Is(err, risk.ErrInvalidPolicy), ShouldBeTrue)
		})

		Convey("When the reduced fraction is out of range", func() {
			_, err := risk.NewEngine(risk.WithReducedFraction(1.5))
			So(errors.Is(err, risk.ErrInvalidPolicy), ShouldBeTrue)
		})

		Convey("When the tolerance is not positive", func() {
			_, err := risk.NewEngine(risk.WithSimplexTolerance(0))
			So(errors.Is(err, risk.ErrInvalidPolicy), ShouldBeTrue)
		})
	})
}

func TestEngine_DefaultProbabilityBounds(t *testing.T) {
	Convey("Given the default policy", t, func() {
		engine, err := risk.NewEngine()
		So(err, ShouldBeNil)

		Convey("Then the blend should stay within the severity range", func() {
			So(engine.DefaultProbability([]float64{1, 0, 0}), ShouldEqual, 5.0)
			So(engine.DefaultProbability([]float64{0, 0, 1}), ShouldEqual, 80.0)
		})

		Convey("Then moving mass toward higher tiers should never lower it", func() {
			prev := engine.DefaultProbability([]float64{1, 0, 0})
			for step := 1; step <= 10; step++ {
				p2 := float64(step) / 10
				cur := engine.DefaultProbability([]float64{1 - p2, 0, p2})
				So(cur, ShouldBeGreaterThanOrEqualTo, prev)
				prev = cur
			}
		})
	})
}

func TestClass(t *testing.T) {
	Convey("Given risk classes", t, func() {
		Convey("When mapping ids", func() {
			c, err := risk.ClassFromID(1)
			So(err, ShouldBeNil)
			So(c, ShouldEqual, risk.Medium)

			_, err = risk.ClassFromID(7)
			So(errors.Is(err, risk.ErrClassifierContract), ShouldBeTrue)
		})

		Convey("When round-tripping labels", func() {
			var c risk.Class
			So(c.UnmarshalText([]byte("High Risk")), ShouldBeNil)
			So(c, ShouldEqual, risk.High)
			So(c.UnmarshalText([]byte("Unknown")), ShouldNotBeNil)
		})

		Convey("When the class is out of range", func() {
			So(risk.Class(9).String(), ShouldEqual, "Class(9)")
			So(risk.Class(9).Indicator(), ShouldEqual, "")
		})
	})
}
