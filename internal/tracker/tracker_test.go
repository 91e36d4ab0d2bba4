package tracker_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"smartexpense/internal/core"
	"smartexpense/internal/storage"
	"smartexpense/internal/tracker"
)

// flakyStore wraps a repository and fails saves on demand.
type flakyStore struct {
	repo     *storage.Repository
	failSave bool
	saves    int
}

func (f *flakyStore) Load(ctx context.Context) (storage.State, error) {
	return f.repo.Load(ctx)
}

func (f *flakyStore) Save(ctx context.Context, st storage.State) error {
	f.saves++
	if f.failSave {
		return errors.New("quota exceeded")
	}
	return f.repo.Save(ctx, st)
}

var _ = Describe("Tracker", func() {
	var (
		ctx   context.Context
		kv    *storage.MemoryKV
		store *flakyStore
		trk   *tracker.Tracker
		today time.Time
		seq   int
	)

	sequentialIDs := func() string {
		seq++
		return fmt.Sprintf("exp-%d", seq)
	}

	open := func() *tracker.Tracker {
		t, err := tracker.Open(ctx, store,
			tracker.WithClock(func() time.Time { return today }),
			tracker.WithIDGenerator(sequentialIDs),
			tracker.WithHueSource(func() float64 { return 0.5 }),
		)
		Expect(err).NotTo(HaveOccurred())
		return t
	}

	BeforeEach(func() {
		ctx = context.Background()
		kv = storage.NewMemoryKV()
		store = &flakyStore{repo: storage.NewRepository(kv, nil)}
		today = time.Date(2024, 5, 17, 10, 0, 0, 0, time.Local)
		seq = 0
		trk = open()
	})

	Describe("Open", func() {
		It("starts empty when nothing is persisted", func() {
			Expect(trk.Len()).To(Equal(0))
			s := trk.Summary()
			Expect(s.Total.String()).To(Equal("0.00"))
			Expect(s.Remaining.String()).To(Equal("0.00"))
			Expect(s.Progress).To(BeZero())
			Expect(store.saves).To(BeZero())
		})

		It("assigns identities to stored records that lack one and writes them back", func() {
			Expect(kv.Set(ctx, storage.KeyExpenses,
				`[{"description":"Lunch","amount":5,"category":"Food","date":"2024-05-01"}]`)).To(Succeed())

			reopened := open()
			items := reopened.Expenses("")
			Expect(items).To(HaveLen(1))
			Expect(items[0].ID).NotTo(BeEmpty())
			Expect(store.saves).To(Equal(1))

			raw, ok, err := kv.Get(ctx, storage.KeyExpenses)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(raw).To(ContainSubstring(items[0].ID))
		})
	})

	Describe("Add", func() {
		It("appends a record dated today and persists it", func() {
			e, err := trk.Add(ctx, "Lunch", "500", "Food")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Date).To(Equal(core.Date("2024-05-17")))
			Expect(e.Amount.Cents).To(Equal(int64(50000)))
			Expect(trk.Len()).To(Equal(1))

			reopened := open()
			Expect(reopened.Expenses("")).To(Equal([]core.Expense{e}))
		})

		DescribeTable("rejects invalid input without touching the store",
			func(desc, amount string) {
				_, err := trk.Add(ctx, desc, amount, "Food")
				Expect(tracker.IsValidation(err)).To(BeTrue())

				var ve *tracker.ValidationError
				Expect(errors.As(err, &ve)).To(BeTrue())
				Expect(ve.Alert()).To(Equal("Enter valid expense"))
				Expect(trk.Len()).To(BeZero())
				Expect(store.saves).To(BeZero())
			},
			Entry("empty description", "", "10"),
			Entry("blank description", "   ", "10"),
			Entry("zero amount", "Lunch", "0"),
			Entry("negative amount", "Lunch", "-4"),
			Entry("non-numeric amount", "Lunch", "abc"),
		)

		It("keeps the in-memory mutation when persisting fails", func() {
			store.failSave = true
			_, err := trk.Add(ctx, "Lunch", "500", "Food")
			Expect(err).To(HaveOccurred())
			Expect(tracker.IsValidation(err)).To(BeFalse())
			Expect(trk.Len()).To(Equal(1))
		})
	})

	Describe("AddVoice", func() {
		It("records the same triple as manual entry", func() {
			voiced, err := trk.AddVoice(ctx, "Add 500 Food Lunch")
			Expect(err).NotTo(HaveOccurred())
			manual, err := trk.Add(ctx, "Lunch", "500", "Food")
			Expect(err).NotTo(HaveOccurred())

			Expect(voiced.Description).To(Equal(manual.Description))
			Expect(voiced.Amount).To(Equal(manual.Amount))
			Expect(voiced.Category).To(Equal(manual.Category))
		})

		It("surfaces the same rejection for a bad amount", func() {
			_, err := trk.AddVoice(ctx, "Add lots Food Lunch")
			Expect(tracker.IsValidation(err)).To(BeTrue())
			Expect(errors.Is(err, core.ErrInvalidAmount)).To(BeTrue())
			Expect(trk.Len()).To(BeZero())
		})
	})

	Describe("Delete", func() {
		It("removes exactly the identified record, even from a filtered view", func() {
			today = time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
			may, _ := trk.Add(ctx, "May rent", "700", "Bills")
			today = time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)
			june1, _ := trk.Add(ctx, "June rent", "700", "Bills")
			june2, _ := trk.Add(ctx, "Groceries", "80", "Food")

			visible := trk.Expenses("2024-06")
			Expect(visible).To(HaveLen(2))

			Expect(trk.Delete(ctx, visible[1].ID)).To(Succeed())
			Expect(trk.Expenses("")).To(Equal([]core.Expense{may, june1}))
			Expect(june2.ID).To(Equal(visible[1].ID))
		})

		It("reports unknown identities", func() {
			err := trk.Delete(ctx, "nope")
			Expect(errors.Is(err, tracker.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("budget and income", func() {
		It("drives the summary", func() {
			_, err := trk.SetIncome(ctx, "1000")
			Expect(err).NotTo(HaveOccurred())
			_, err = trk.SetBudget(ctx, "800")
			Expect(err).NotTo(HaveOccurred())
			_, err = trk.Add(ctx, "Lunch", "500", "Food")
			Expect(err).NotTo(HaveOccurred())

			s := trk.Summary()
			Expect(s.Total.String()).To(Equal("500.00"))
			Expect(s.Remaining.String()).To(Equal("500.00"))
			Expect(s.Progress).To(Equal(62.5))
			Expect(s.Color).To(Equal(core.ColorOnBudget))
			Expect(trk.Summary()).To(Equal(s))
		})

		It("caps progress at 100", func() {
			_, _ = trk.SetBudget(ctx, "100")
			_, _ = trk.Add(ctx, "Phone", "200", "Bills")
			Expect(trk.Summary().Progress).To(Equal(100.0))
			Expect(trk.Summary().Color).To(Equal(core.ColorOverBudget))
		})

		It("rejects non-positive values and keeps the previous one", func() {
			_, err := trk.SetBudget(ctx, "300")
			Expect(err).NotTo(HaveOccurred())

			for _, bad := range []string{"0", "-1", "abc", ""} {
				_, err := trk.SetBudget(ctx, bad)
				var ve *tracker.ValidationError
				Expect(errors.As(err, &ve)).To(BeTrue())
				Expect(ve.Alert()).To(Equal("Enter valid budget"))
			}
			_, err = trk.SetIncome(ctx, "0")
			Expect(errors.Is(err, core.ErrInvalidIncome)).To(BeTrue())

			Expect(trk.Summary().Budget.Cents).To(Equal(int64(30000)))
		})
	})

	Describe("views", func() {
		It("filters the table by month but summarizes and charts the full store", func() {
			today = time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
			_, _ = trk.Add(ctx, "Lunch", "10", "Food")
			today = time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)
			_, _ = trk.Add(ctx, "Bus", "5", "Transport")

			Expect(trk.Expenses("2024-05")).To(HaveLen(1))
			Expect(trk.Summary().Total.String()).To(Equal("15.00"))

			chart := trk.Chart()
			Expect(chart.Labels).To(Equal([]string{"Food", "Transport"}))
			Expect(chart.Values).To(Equal([]float64{10, 5}))
			Expect(chart.Colors).To(HaveEach("hsl(180,70%,60%)"))
		})
	})
})
