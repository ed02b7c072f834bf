//go:build integration

package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/daemon"
	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
	"github.com/eliteGoblin/focusd/pomlock/internal/infra"
	"github.com/eliteGoblin/focusd/pomlock/internal/policy"
	"github.com/eliteGoblin/focusd/pomlock/internal/usecase"
	"github.com/eliteGoblin/focusd/pomlock/test/fixtures"
)

// deadPID returns the PID of a process that has already exited.
func deadPID() int {
	cmd := exec.Command("true")
	Expect(cmd.Run()).To(Succeed())
	return cmd.Process.Pid
}

var _ = Describe("Crash safety", func() {
	var (
		tmpDir   string
		x        *fixtures.FakeXInput
		lock     *usecase.LockControllerImpl
		pm       domain.ProcessManager
		registry *infra.FileRegistry
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "pomlock-integration-*")
		Expect(err).NotTo(HaveOccurred())

		x = fixtures.NewLaptopXInput()
		lock = usecase.NewLockController(x, x, policy.NewMatcher(policy.NewRegistry()), zap.NewNop())
		pm = infra.NewProcessManager()
		registry = infra.NewFileRegistry(filepath.Join(tmpDir, "run", "session.json"), pm)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Guardian", func() {
		It("should restore input after the scheduler dies mid-break", func() {
			pid := deadPID()
			Expect(registry.Register(pid, true)).To(Succeed())
			for _, id := range []int{10, 11, 12, 14} {
				x.SetFloating(id, true)
			}

			cfg := daemon.GuardianConfig{CheckInterval: 10 * time.Millisecond, RestoreTimeout: time.Second}
			g := daemon.NewGuardian(cfg, pid, registry, pm, lock, nil, zap.NewNop())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			Expect(g.Run(ctx)).To(Succeed())

			Expect(x.Floating()).To(BeEmpty())
			entry, err := registry.Get()
			Expect(err).NotTo(HaveOccurred())
			Expect(entry).To(BeNil())
		})

		It("should leave a live session alone", func() {
			Expect(registry.Register(os.Getpid(), true)).To(Succeed())
			x.SetFloating(11, true)

			g := daemon.NewGuardian(daemon.DefaultGuardianConfig(), os.Getpid(), registry, pm, lock, nil, zap.NewNop())

			Expect(g.Check(context.Background())).To(BeFalse())
			Expect(x.Floating()).To(ConsistOf(11))
		})
	})

	Describe("Session registry", func() {
		It("should refuse a second live session", func() {
			Expect(registry.Register(os.Getpid(), true)).To(Succeed())

			other := infra.NewFileRegistry(registry.Path(), pm)
			Expect(other.Register(os.Getpid()+1, true)).To(MatchError(domain.ErrAlreadyRunning))
		})

		It("should take over a registry left by a dead session", func() {
			Expect(registry.Register(deadPID(), true)).To(Succeed())

			Expect(registry.Register(os.Getpid(), false)).To(Succeed())
			entry, err := registry.Get()
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.SchedulerPID).To(Equal(os.Getpid()))
		})
	})

	Describe("Session runner", func() {
		It("should publish phases and clean up after an interrupt", func() {
			overlay := newObservingOverlay(x)
			overlay.block = true
			eventLog := infra.NewEventLog(filepath.Join(tmpDir, "pomlock.log"))
			cfg := domain.SessionConfig{WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, CyclesBeforeLong: 4}
			sched := usecase.NewScheduler(cfg, lock, overlay, eventLog, zap.NewNop(),
				usecase.WithSleep(instantSleep), usecase.WithHooks(registry))

			runnerCfg := daemon.DefaultSessionConfig()
			runnerCfg.Guardian = false
			runner := daemon.NewSessionRunner(runnerCfg, sched, lock, overlay, registry, pm, nil, nil, zap.NewNop())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- runner.Run(ctx) }()

			Eventually(overlay.started).Should(Receive())
			entry, err := registry.Get()
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Phase).To(Equal(domain.StateShortBreak))
			Expect(entry.Cycle).To(Equal(1))
			Expect(entry.PhaseSeconds).To(Equal(300))

			line := usecase.RenderStatusLine(entry, true, time.Unix(entry.PhaseStartedAt, 0))
			Expect(line.Text).To(ContainSubstring("05:00 - 1/4"))

			cancel()
			Eventually(done, 5*time.Second).Should(Receive(BeNil()))

			Expect(x.Floating()).To(BeEmpty())
			entry, err = registry.Get()
			Expect(err).NotTo(HaveOccurred())
			Expect(entry).To(BeNil())
		})
	})
})
