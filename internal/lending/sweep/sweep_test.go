package sweep

//go:generate mockgen -source=sweep.go -destination=mocks/mocks.go -package=mocks LateLoanFinder,Notifier,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	catalog "library/internal/catalog/models"
	"library/internal/lending/metrics"
	"library/internal/lending/models"
	"library/internal/lending/sweep/mocks"
	id "library/pkg/domain"
	"library/pkg/platform/audit"
	"library/pkg/requestcontext"
)

type SweepSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	loans    *mocks.MockLateLoanFinder
	notifier *mocks.MockNotifier
	auditor  *mocks.MockAuditPublisher
	metrics  *metrics.Metrics
	now      time.Time
	sweep    *Sweep
}

func TestSweepSuite(t *testing.T) {
	suite.Run(t, new(SweepSuite))
}

func (s *SweepSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.loans = mocks.NewMockLateLoanFinder(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.now = time.Date(2024, 5, 20, 6, 0, 0, 0, time.UTC)

	var err error
	s.sweep, err = New(s.loans, s.notifier,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithAuditPublisher(s.auditor),
		WithMessage("return it"),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func (s *SweepSuite) TearDownTest() {
	s.ctrl.Finish()
}

func lateLoan(loanID int64, email string) models.Loan {
	return models.Loan{
		ID:            id.LoanID(loanID),
		Book:          catalog.Book{ID: id.BookID(loanID)},
		Customer:      "c",
		CustomerEmail: email,
	}
}

func (s *SweepSuite) TestNew() {
	_, err := New(nil, s.notifier)
	s.ErrorContains(err, "late loan finder is required")

	_, err = New(s.loans, nil)
	s.ErrorContains(err, "notifier is required")

	sw, err := New(s.loans, s.notifier, WithMessage(""), WithInterval(0))
	s.Require().NoError(err)
	s.Equal(DefaultMessage, sw.message)
	s.Equal(DefaultInterval, sw.interval)
}

func (s *SweepSuite) TestRunOnceNotifiesEveryBorrowerInOneBatch() {
	s.loans.EXPECT().GetAllLateLoans(gomock.Any()).DoAndReturn(
		func(ctx context.Context) ([]models.Loan, error) {
			s.Equal(s.now, requestcontext.Now(ctx), "one run evaluates against a single instant")
			return []models.Loan{
				lateLoan(1, "fulano@email.com"),
				lateLoan(2, " ciclano@email.com "),
				lateLoan(3, "FULANO@email.com"),
			}, nil
		})
	s.notifier.EXPECT().Send(gomock.Any(), "return it", []string{"fulano@email.com", "ciclano@email.com"})
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event audit.Event) error {
			s.Equal(audit.ActionOverdueNotified, event.Action)
			s.Equal("overdue=3 recipients=2", event.Detail)
			return nil
		})

	result, err := s.sweep.RunOnce(context.Background())
	s.Require().NoError(err)
	s.True(result.Notified)
	s.Equal(3, result.Overdue)
	s.Len(result.Recipients, 2)

	s.Equal(3.0, promtest.ToFloat64(s.metrics.OverdueLoans))
	s.Equal(2.0, promtest.ToFloat64(s.metrics.NotifiedRecipients))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SweepRuns.WithLabelValues("notified")))
}

func (s *SweepSuite) TestRunOnceSkipsNotifierWhenNothingIsLate() {
	s.loans.EXPECT().GetAllLateLoans(gomock.Any()).Return(nil, nil)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	result, err := s.sweep.RunOnce(context.Background())
	s.Require().NoError(err)
	s.False(result.Notified)
	s.Zero(result.Overdue)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SweepRuns.WithLabelValues("empty")))
}

func (s *SweepSuite) TestRunOnceSkipsNotifierWhenNoAddressIsDeliverable() {
	s.loans.EXPECT().GetAllLateLoans(gomock.Any()).Return([]models.Loan{lateLoan(1, ""), lateLoan(2, "  ")}, nil)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	result, err := s.sweep.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(2, result.Overdue)
	s.False(result.Notified)
}

func (s *SweepSuite) TestRunOnceReportsLookupFailure() {
	s.loans.EXPECT().GetAllLateLoans(gomock.Any()).Return(nil, errors.New("db down"))
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := s.sweep.RunOnce(context.Background())
	s.ErrorContains(err, "load late loans")
	s.Equal(1.0, promtest.ToFloat64(s.metrics.SweepRuns.WithLabelValues("error")))
}

func (s *SweepSuite) TestRunTicksUntilCancelled() {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	s.loans.EXPECT().GetAllLateLoans(gomock.Any()).DoAndReturn(
		func(context.Context) ([]models.Loan, error) {
			if runs.Add(1) == 1 {
				return nil, errors.New("transient")
			}
			cancel()
			return nil, nil
		}).MinTimes(2)

	sw, err := New(s.loans, s.notifier,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithInterval(5*time.Millisecond),
	)
	s.Require().NoError(err)

	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		s.Fail("sweep did not stop after cancellation")
	}
	s.GreaterOrEqual(runs.Load(), int32(2), "a failed run is retried on the next tick")
}
