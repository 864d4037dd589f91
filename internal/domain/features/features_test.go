package features_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/loanguard/internal/domain/features"
	"github.com/okian/loanguard/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

var day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func income(amount int64) model.Transaction {
	return model.Transaction{Date: day, Amount: decimal.NewFromInt(amount), Type: model.TransactionIncome}
}

func expense(amount int64, category string) model.Transaction {
	return model.Transaction{Date: day, Amount: decimal.NewFromInt(amount), Type: model.TransactionExpense, Category: category}
}

func repayments(status model.RepaymentStatus, n int) []model.Repayment {
	out := make([]model.Repayment, n)
	for i := range out {
		out[i] = model.Repayment{Status: status}
	}
	return out
}

func mustGet(v features.Vector, name string) float64 {
	val, ok := v.Get(name)
	So(ok, ShouldBeTrue)
	return val
}

func TestExtract_EmptyHistory(t *testing.T) {
	Convey("Given a borrower with no history", t, func() {
		v, err := features.Extract(model.BorrowerRecord{})

		Convey("Then extraction should succeed with neutral defaults", func() {
			So(err, ShouldBeNil)
			So(mustGet(v, features.TotalIncome), ShouldEqual, 0)
			So(mustGet(v, features.TotalExpense), ShouldEqual, 0)
			So(mustGet(v, features.NetCashflow), ShouldEqual, 0)
			So(mustGet(v, features.GamblingRatio), ShouldEqual, 0)
			So(mustGet(v, features.SavingsRatio), ShouldEqual, 0)
			So(mustGet(v, features.IncomeStd), ShouldEqual, 0)
			So(mustGet(v, features.RepaymentRate), ShouldEqual, 1.0)
			So(mustGet(v, features.MissedRepayments), ShouldEqual, 0)
			So(mustGet(v, features.TotalLoans), ShouldEqual, 0)
		})
	})
}

func TestExtract_Guards(t *testing.T) {
	Convey("Given sparse histories", t, func() {
		Convey("When there are no repayments", func() {
			v, err := features.Extract(model.BorrowerRecord{
				Transactions: []model.Transaction{income(500), expense(100, "food")},
			})

			Convey("Then repayment features use the optimistic default", func() {
				So(err, ShouldBeNil)
				So(mustGet(v, features.RepaymentRate), ShouldEqual, 1.0)
				So(mustGet(v, features.TotalLoans), ShouldEqual, 0)
				So(mustGet(v, features.MissedRepayments), ShouldEqual, 0)
			})
		})

		Convey("When there are no expenses", func() {
			v, err := features.Extract(model.BorrowerRecord{
				Transactions: []model.Transaction{income(800), income(800)},
			})

			Convey("Then ratio features are zero and income std is zero", func() {
				So(err, ShouldBeNil)
				So(mustGet(v, features.GamblingRatio), ShouldEqual, 0)
				So(mustGet(v, features.SavingsRatio), ShouldEqual, 0)
				So(mustGet(v, features.IncomeStd), ShouldEqual, 0)
				So(mustGet(v, features.NetCashflow), ShouldEqual, 1600)
			})
		})

		Convey("When there is no income", func() {
			v, err := features.Extract(model.BorrowerRecord{
				Transactions: []model.Transaction{expense(200, model.CategorySavings), expense(100, model.CategoryGambling)},
			})

			Convey("Then income features are zero and savings ratio falls back to zero", func() {
				So(err, ShouldBeNil)
				So(mustGet(v, features.TotalIncome), ShouldEqual, 0)
				So(mustGet(v, features.IncomeStd), ShouldEqual, 0)
				So(mustGet(v, features.SavingsRatio), ShouldEqual, 0)
				So(mustGet(v, features.NetCashflow), ShouldEqual, -300)
				So(mustGet(v, features.GamblingRatio), ShouldAlmostEqual, 1.0/3.0, 1e-12)
			})
		})
	})
}

func TestExtract_Aggregates(t *testing.T) {
	Convey("Given a mixed history", t, func() {
		rec := model.BorrowerRecord{
			Transactions: []model.Transaction{
				income(600),
				income(1000),
				expense(400, model.CategoryGambling),
				expense(200, model.CategorySavings),
				expense(200, "groceries"),
			},
			Repayments: append(append(repayments(model.RepaymentOnTime, 2), repayments(model.RepaymentLate, 1)...), repayments(model.RepaymentMissed, 1)...),
		}

		v, err := features.Extract(rec)

		Convey("Then every feature should match its definition", func() {
			So(err, ShouldBeNil)
			So(mustGet(v, features.TotalIncome), ShouldEqual, 1600)
			So(mustGet(v, features.TotalExpense), ShouldEqual, 800)
			So(mustGet(v, features.NetCashflow), ShouldEqual, 800)
			So(mustGet(v, features.GamblingRatio), ShouldEqual, 0.5)
			So(mustGet(v, features.SavingsRatio), ShouldEqual, 0.125)
			So(mustGet(v, features.IncomeStd), ShouldEqual, 200)
			So(mustGet(v, features.RepaymentRate), ShouldEqual, 0.5)
			So(mustGet(v, features.MissedRepayments), ShouldEqual, 1)
			So(mustGet(v, features.TotalLoans), ShouldEqual, 4)
		})

		Convey("And values should come out in the fixed order", func() {
			So(v.Values(), ShouldResemble, []float64{1600, 800, 800, 0.5, 0.125, 200, 0.5, 1, 4})
			So(features.Names()[0], ShouldEqual, features.TotalIncome)
			So(features.Names()[features.Count-1], ShouldEqual, features.TotalLoans)
		})

		Convey("And extracting twice should be idempotent", func() {
			again, err := features.Extract(rec)
			So(err, ShouldBeNil)
			So(again.Values(), ShouldResemble, v.Values())
		})

		Convey("And JSON output should keep the feature order", func() {
			raw, err := json.Marshal(v)
			So(err, ShouldBeNil)
			So(string(raw), ShouldStartWith, `{"total_income":1600,"total_expense":800,"net_cashflow":800`)
			So(string(raw), ShouldEndWith, `"missed_repayments":1,"total_loans":4}`)
		})
	})
}

func TestExtract_MalformedInput(t *testing.T) {
	Convey("Given a record with a negative amount", t, func() {
		rec := model.BorrowerRecord{Transactions: []model.Transaction{
			{Date: day, Amount: decimal.NewFromInt(-1), Type: model.TransactionIncome},
		}}

		Convey("Then extraction should fail with malformed input", func() {
			_, err := features.Extract(rec)
			So(errors.Is(err, model.ErrMalformedInput), ShouldBeTrue)
		})
	})
}

func TestExtract_NonFinite(t *testing.T) {
	Convey("Given amounts too large for a float64", t, func() {
		huge := decimal.RequireFromString("1e400")

		Convey("When a single income is out of range", func() {
			rec := model.BorrowerRecord{Transactions: []model.Transaction{
				{Date: day, Amount: huge, Type: model.TransactionIncome},
			}}
			_, err := features.Extract(rec)

			Convey("Then extraction should fail with malformed input", func() {
				So(errors.Is(err, model.ErrMalformedInput), ShouldBeTrue)
			})
		})

		Convey("When each amount fits but the total overflows", func() {
			big := decimal.RequireFromString("1e308")
			rec := model.BorrowerRecord{Transactions: []model.Transaction{
				{Date: day, Amount: big, Type: model.TransactionIncome},
				{Date: day, Amount: big, Type: model.TransactionIncome},
			}}
			_, err := features.Extract(rec)

			Convey("Then extraction should fail with malformed input", func() {
				So(errors.Is(err, model.ErrMalformedInput), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, features.TotalIncome)
			})
		})
	})
}

func TestFromValues(t *testing.T) {
	Convey("Given raw values", t, func() {
		Convey("When the length matches", func() {
			v, err := features.FromValues([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
			So(err, ShouldBeNil)
			So(mustGet(v, features.TotalLoans), ShouldEqual, 9)
		})

		Convey("When the length is wrong", func() {
			_, err := features.FromValues([]float64{1, 2})
			So(err, ShouldNotBeNil)
		})

		Convey("When asking for an unknown name", func() {
			v, _ := features.FromValues(make([]float64, features.Count))
			_, ok := v.Get("credit_score")
			So(ok, ShouldBeFalse)
		})
	})
}
