package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/loanguard/internal/domain/model"
)

var errWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// fakeRedis is an in-process stand-in for the redis commands RedisStore uses.
// Strings and sets share one keyspace, as in redis.
type fakeRedis struct {
	mu      sync.Mutex
	kv      map[string]string
	sets    map[string]map[string]struct{}
	failAll error
	closed  bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{kv: map[string]string{}, sets: map[string]map[string]struct{}{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewStringResult("", f.failAll)
	}
	if _, isSet := f.sets[key]; isSet {
		return redis.NewStringResult("", errWrongType)
	}
	v, ok := f.kv[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewStatusResult("", f.failAll)
	}
	delete(f.sets, key)
	switch v := value.(type) {
	case []byte:
		f.kv[key] = string(v)
	default:
		f.kv[key] = fmt.Sprint(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SAdd(_ context.Context, key string, members ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewIntResult(0, f.failAll)
	}
	if _, isString := f.kv[key]; isString {
		return redis.NewIntResult(0, errWrongType)
	}
	set := f.sets[key]
	if set == nil {
		set = map[string]struct{}{}
		f.sets[key] = set
	}
	var added int64
	for _, m := range members {
		s := fmt.Sprint(m)
		if _, ok := set[s]; !ok {
			set[s] = struct{}{}
			added++
		}
	}
	return redis.NewIntResult(added, nil)
}

func (f *fakeRedis) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewStringSliceResult(nil, f.failAll)
	}
	if _, isString := f.kv[key]; isString {
		return redis.NewStringSliceResult(nil, errWrongType)
	}
	out := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return redis.NewStringSliceResult(out, nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.failAll)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func sampleRecord() model.BorrowerRecord {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	due := day.AddDate(0, 0, 30)
	return model.BorrowerRecord{
		Transactions: []model.Transaction{
			{Date: day, Amount: decimal.RequireFromString("800.00"), Type: model.TransactionIncome},
			{Date: day, Amount: decimal.RequireFromString("120.55"), Type: model.TransactionExpense, Category: "groceries"},
		},
		Repayments: []model.Repayment{
			{LoanID: "LOAN-0", DueDate: &due, PaidDate: &due, Status: model.RepaymentOnTime},
			{Status: model.RepaymentMissed},
		},
	}
}

// storeContract runs the behaviour every Store must share.
func storeContract(newStore func() Store) {
	ctx := context.Background()
	store := newStore()
	defer func() { _ = store.Close() }()

	Convey("When a record is saved and loaded back", func() {
		So(store.Save(ctx, "good_spender", sampleRecord()), ShouldBeNil)
		got, err := store.Load(ctx, "good_spender")

		Convey("Then it should round-trip amounts, dates and statuses", func() {
			So(err, ShouldBeNil)
			So(got.Transactions, ShouldHaveLength, 2)
			So(got.Transactions[1].Amount.Equal(decimal.RequireFromString("120.55")), ShouldBeTrue)
			So(got.Transactions[1].Category, ShouldEqual, "groceries")
			So(got.Transactions[0].Date.Equal(sampleRecord().Transactions[0].Date), ShouldBeTrue)
			So(got.Repayments[0].Status, ShouldEqual, model.RepaymentOnTime)
			So(got.Repayments[1].DueDate, ShouldBeNil)
			So(got.Validate(), ShouldBeNil)
		})
	})

	Convey("When several records are saved", func() {
		So(store.Save(ctx, "zeta", model.BorrowerRecord{}), ShouldBeNil)
		So(store.Save(ctx, "alpha", model.BorrowerRecord{}), ShouldBeNil)
		So(store.Save(ctx, "alpha", sampleRecord()), ShouldBeNil)
		names, err := store.List(ctx)

		Convey("Then List should return each name once, sorted", func() {
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"alpha", "zeta"})
		})
	})

	Convey("When an unknown name is loaded", func() {
		_, err := store.Load(ctx, "missing")

		Convey("Then it should return ErrNotFound", func() {
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("When an invalid name is saved", func() {
		err := store.Save(ctx, "two words", model.BorrowerRecord{})

		Convey("Then it should return ErrInvalidName", func() {
			So(errors.Is(err, ErrInvalidName), ShouldBeTrue)
		})
	})
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a temp dir", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "simulated_data.json")

		storeContract(func() Store { return NewFileStore(path) })

		Convey("When the file holds invalid JSON", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			So(os.WriteFile(path, []byte("{not json"), 0o600), ShouldBeNil)
			_, err := NewFileStore(path).List(context.Background())

			Convey("Then it should report the store as unavailable", func() {
				So(errors.Is(err, ErrUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := NewFileStore(path).Save(ctx, "x", model.BorrowerRecord{})

			Convey("Then Save should return the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestRedisStore(t *testing.T) {
	Convey("Given a redis store over a fake client", t, func() {
		fake := newFakeRedis()

		storeContract(func() Store { return newRedisStore(fake, WithPrefix("test:")) })

		Convey("When a record is saved", func() {
			s := newRedisStore(fake, WithPrefix("test:"))
			So(s.Save(context.Background(), "gambler", sampleRecord()), ShouldBeNil)

			Convey("Then it should be stored under the prefix and indexed", func() {
				_, ok := fake.kv["test:record:gambler"]
				So(ok, ShouldBeTrue)
				_, indexed := fake.sets["test:names"]["gambler"]
				So(indexed, ShouldBeTrue)
			})
		})

		Convey("When fixtures share names with the index keys", func() {
			s := newRedisStore(fake, WithPrefix("test:"))
			ctx := context.Background()
			for _, name := range []string{"good_spender", "index", "names", "record:names"} {
				So(s.Save(ctx, name, sampleRecord()), ShouldBeNil)
			}

			Convey("Then the index should survive and list every name", func() {
				names, err := s.List(ctx)
				So(err, ShouldBeNil)
				So(names, ShouldResemble, []string{"good_spender", "index", "names", "record:names"})
			})

			Convey("Then each record should load back", func() {
				rec, err := s.Load(ctx, "names")
				So(err, ShouldBeNil)
				So(rec.Transactions, ShouldHaveLength, len(sampleRecord().Transactions))
			})
		})

		Convey("When the backend fails", func() {
			fake.failAll = errors.New("connection refused")
			s := newRedisStore(fake)

			Convey("Then every call should report ErrUnavailable", func() {
				_, errLoad := s.Load(context.Background(), "x")
				_, errList := s.List(context.Background())
				errSave := s.Save(context.Background(), "x", model.BorrowerRecord{})
				So(errors.Is(errLoad, ErrUnavailable), ShouldBeTrue)
				So(errors.Is(errList, ErrUnavailable), ShouldBeTrue)
				So(errors.Is(errSave, ErrUnavailable), ShouldBeTrue)
			})
		})

		Convey("When no prefix option is given", func() {
			s := newRedisStore(fake)

			Convey("Then the default prefix should be used", func() {
				So(s.prefix, ShouldEqual, defaultPrefix)
			})
		})

		Convey("When closed", func() {
			So(newRedisStore(fake).Close(), ShouldBeNil)
			So(fake.closed, ShouldBeTrue)
		})
	})
}
