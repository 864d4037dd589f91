package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/loanguard/internal/adapters/repository"
	service "github.com/okian/loanguard/internal/app"
	"github.com/okian/loanguard/internal/domain/model"
	"github.com/okian/loanguard/internal/domain/risk"
	"github.com/okian/loanguard/internal/simulation"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with the built-in model and a file fixture store", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store := repository.NewFileStore(filepath.Join(t.TempDir(), "simulated_data.json"))
		svc := service.New(
			service.WithStore(store),
			service.WithGenerator(simulation.NewGenerator(simulation.WithSeed(42))),
			service.WithEvalWorkers(4),
			service.WithEvalQueueSize(16),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When each profile is simulated, stored and scored", func() {
			for _, name := range simulation.Profiles() {
				rec, err := svc.Simulate(name, 0)
				So(err, ShouldBeNil)
				So(svc.SaveFixture(ctx, name, rec), ShouldBeNil)
			}
			names, err := svc.Fixtures(ctx)
			So(err, ShouldBeNil)

			Convey("Then every stored fixture should produce a bounded decision", func() {
				So(names, ShouldResemble, simulation.Profiles())
				for _, name := range names {
					res, err := svc.ScoreFixture(ctx, name)
					So(err, ShouldBeNil)
					So(res.DefaultProbability, ShouldBeBetweenOrEqual, 0, 100)
					So(res.Recommendation, ShouldNotBeEmpty)
				}
			})
		})

		Convey("When an unknown fixture is scored", func() {
			_, err := svc.ScoreFixture(ctx, "nobody")

			Convey("Then it should be reported as not found", func() {
				So(service.ErrorKind(err), ShouldEqual, "not_found")
			})
		})

		Convey("When an unknown profile is scored", func() {
			_, err := svc.ScoreProfile(ctx, "lottery_winner", 0)

			Convey("Then it should be reported as an unknown profile", func() {
				So(service.ErrorKind(err), ShouldEqual, "unknown_profile")
			})
		})

		Convey("When missed repayments increase with everything else fixed", func() {
			base := model.BorrowerRecord{
				Transactions: []model.Transaction{
					{Date: day, Amount: decimal.NewFromInt(1200), Type: model.TransactionIncome},
					{Date: day, Amount: decimal.NewFromInt(900), Type: model.TransactionExpense, Category: "groceries"},
				},
				Repayments: repayments(model.RepaymentOnTime, 6),
			}

			var pds []float64
			for missed := 0; missed <= 8; missed++ {
				rec := base
				rec.Repayments = append(append([]model.Repayment{}, base.Repayments...), repayments(model.RepaymentMissed, missed)...)
				res, err := svc.Score(ctx, rec)
				So(err, ShouldBeNil)
				pds = append(pds, res.DefaultProbability)
			}

			Convey("Then the default probability should never decrease", func() {
				for i := 1; i < len(pds); i++ {
					So(pds[i], ShouldBeGreaterThanOrEqualTo, pds[i-1])
				}
				So(pds[len(pds)-1], ShouldBeGreaterThan, pds[0])
			})
		})

		Convey("When an evaluation is run", func() {
			report, err := svc.Evaluate(ctx, 10, 3)

			Convey("Then it should account for every sample", func() {
				So(err, ShouldBeNil)
				So(report.Samples, ShouldEqual, 30)
				So(report.Scored+report.Failed, ShouldEqual, 30)
				total := 0
				for _, row := range report.Confusion {
					for _, n := range row {
						total += n
					}
				}
				So(total, ShouldEqual, report.Scored)
				So(report.Accuracy, ShouldBeBetweenOrEqual, 0, 1)
			})

			Convey("And the stats should remember it", func() {
				last, ok := svc.GetStats()["lastEvaluation"].(map[string]interface{})
				So(ok, ShouldBeTrue)
				So(last["samples"], ShouldEqual, 30)
			})
		})

		Convey("When many goroutines score concurrently", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 50)
			classes := make(chan risk.Class, 50)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					profile := simulation.Profiles()[i%3]
					res, err := svc.ScoreProfile(ctx, profile, 2)
					if err != nil {
						errs <- fmt.Errorf("%s: %w", profile, err)
						return
					}
					classes <- res.RiskClass
				}(i)
			}
			wg.Wait()
			close(errs)
			close(classes)

			Convey("Then every call should succeed", func() {
				So(len(errs), ShouldEqual, 0)
				So(len(classes), ShouldEqual, 50)
			})
		})
	})
}
