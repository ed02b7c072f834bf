//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
	"github.com/eliteGoblin/focusd/pomlock/internal/infra"
	"github.com/eliteGoblin/focusd/pomlock/internal/policy"
	"github.com/eliteGoblin/focusd/pomlock/internal/usecase"
	"github.com/eliteGoblin/focusd/pomlock/test/fixtures"
)

var _ = Describe("Session Scheduler", func() {
	var (
		tmpDir   string
		x        *fixtures.FakeXInput
		lock     *usecase.LockControllerImpl
		overlay  *observingOverlay
		eventLog *infra.EventLog
		cfg      domain.SessionConfig
	)

	newScheduler := func() *usecase.Scheduler {
		return usecase.NewScheduler(cfg, lock, overlay, eventLog, zap.NewNop(), usecase.WithSleep(instantSleep))
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "pomlock-integration-*")
		Expect(err).NotTo(HaveOccurred())

		x = fixtures.NewLaptopXInput()
		lock = usecase.NewLockController(x, x, policy.NewMatcher(policy.NewRegistry()), zap.NewNop())
		overlay = newObservingOverlay(x)
		eventLog = infra.NewEventLog(filepath.Join(tmpDir, "data", "pomlock.log"))
		cfg = domain.SessionConfig{
			WorkMinutes:       25,
			ShortBreakMinutes: 5,
			LongBreakMinutes:  15,
			CyclesBeforeLong:  3,
		}
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("a full round of three work periods", func() {
		It("should take two short breaks and one long break with input locked in each", func() {
			s := newScheduler()
			ctx := context.Background()

			var kinds []domain.BreakKind
			for i := 0; i < 3; i++ {
				kind, err := s.Step(ctx)
				Expect(err).NotTo(HaveOccurred())
				kinds = append(kinds, kind)
			}

			Expect(kinds).To(Equal([]domain.BreakKind{domain.ShortBreak, domain.ShortBreak, domain.LongBreak}))
			Expect(s.Cycle()).To(Equal(0))
			Expect(overlay.Durations()).To(Equal([]time.Duration{5 * time.Minute, 5 * time.Minute, 15 * time.Minute}))

			for _, floating := range overlay.Floating() {
				Expect(floating).To(ConsistOf(10, 11, 12, 14))
			}
			Expect(x.Floating()).To(BeEmpty())
		})

		It("should write the event log in order", func() {
			s := newScheduler()
			for i := 0; i < 3; i++ {
				_, err := s.Step(context.Background())
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(eventLines(eventLog.Path())).To(Equal([][3]string{
				{"WorkCompleted", "1500", "1"},
				{"ShortBreakStarted", "300", "1"},
				{"BreakCompleted", "300", "1"},
				{"WorkCompleted", "1500", "2"},
				{"ShortBreakStarted", "300", "2"},
				{"BreakCompleted", "300", "2"},
				{"WorkCompleted", "1500", "3"},
				{"LongBreakStarted", "900", "0"},
				{"BreakCompleted", "900", "0"},
			}))
		})
	})

	Context("in safe mode", func() {
		It("should never touch a device", func() {
			cfg.EnableInputDuringBreak = true
			s := newScheduler()

			_, err := s.Step(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(x.DetachCalls()).To(BeEmpty())
			Expect(x.AttachCalls()).To(BeEmpty())
			Expect(overlay.Floating()).To(Equal([][]int{nil}))
		})
	})

	Context("when the overlay cannot start", func() {
		It("should restore input and still complete the break", func() {
			overlay.launchFail = true
			s := newScheduler()

			kind, err := s.Step(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(kind).To(Equal(domain.ShortBreak))

			Expect(x.Floating()).To(BeEmpty())
			lines := eventLines(eventLog.Path())
			Expect(lines[len(lines)-1][0]).To(Equal("BreakCompleted"))
		})
	})

	Context("when a device cannot be detached", func() {
		It("should lock the rest and re-attach exactly those", func() {
			x.FailDevice(14, os.ErrPermission)
			s := newScheduler()

			_, err := s.Step(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(overlay.Floating()[0]).To(ConsistOf(10, 11, 12))
			Expect(x.Floating()).To(BeEmpty())
		})
	})

	Context("when interrupted during a break", func() {
		It("should restore input and not log BreakCompleted", func() {
			overlay.block = true
			s := newScheduler()
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() { done <- s.Run(ctx) }()

			Eventually(overlay.started).Should(Receive())
			Expect(x.Floating()).To(ConsistOf(10, 11, 12, 14))
			cancel()

			var err error
			Eventually(done, 5*time.Second).Should(Receive(&err))
			Expect(err).To(MatchError(domain.ErrInterruptedDuringBreak))
			Expect(x.Floating()).To(BeEmpty())
			Expect(s.State()).To(Equal(domain.StateIdle))

			lines := eventLines(eventLog.Path())
			Expect(lines[0][0]).To(Equal("SessionStarted"))
			Expect(lines[len(lines)-1][0]).To(Equal("ShortBreakStarted"))
		})
	})
})
