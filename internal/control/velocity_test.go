package control

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/mechctl/internal/dynamo"
	"github.com/san-kum/mechctl/internal/feedforward"
	"github.com/san-kum/mechctl/internal/schedule"
	"github.com/san-kum/mechctl/internal/units"
)

var _ = Describe("Velocity", func() {
	var (
		motor    *fakeMotor
		tunables *Tunables
		sink     mapSink
		gear     units.GearRatio
		ff       feedforward.SimpleMotor
		vc       *Velocity
	)

	BeforeEach(func() {
		motor = &fakeMotor{}
		tunables = NewTunables(dynamo.Gains{P: 0.0002, F: 0.00018})
		sink = mapSink{}
		gear = units.MustGearRatio(0.5)
		ff = feedforward.SimpleMotor{Ks: 0.05, Kv: 0.002, Ka: 0.001}

		table, err := schedule.New([]schedule.Breakpoint{
			{Distance: 6, Velocity: 4620},
			{Distance: 7, Velocity: 4620},
			{Distance: 9, Velocity: 4250},
			{Distance: 10, Velocity: 4300},
			{Distance: 12, Velocity: 4220},
		})
		Expect(err).NotTo(HaveOccurred())

		vc, err = NewVelocity(VelocityConfig{
			Name:        "flywheel",
			Gear:        gear,
			Feedforward: ff,
			Tolerance:   0.05,
			Table:       table,
			Logger:      log.New(GinkgoWriter),
		}, motor, tunables, sink)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts idle and pushes gains once", func() {
		Expect(vc.IsActive()).To(BeFalse())
		Expect(vc.Desired()).To(BeZero())
		Expect(motor.gainPush).To(Equal([]dynamo.Gains{{P: 0.0002, F: 0.00018}}))
	})

	Describe("transitions", func() {
		It("becomes active on SetVelocity", func() {
			vc.SetVelocity(500)
			Expect(vc.IsActive()).To(BeTrue())
			Expect(vc.Desired()).To(Equal(500.0))
		})

		It("returns to idle on Stop", func() {
			vc.SetVelocity(500)
			vc.Stop()
			Expect(vc.IsActive()).To(BeFalse())
			Expect(vc.Desired()).To(BeZero())

			vc.Stop()
			Expect(vc.IsActive()).To(BeFalse())
		})

		It("returns to idle on disable", func() {
			vc.SetVelocity(500)
			vc.OnDisable()
			Expect(vc.IsActive()).To(BeFalse())
			Expect(vc.Desired()).To(BeZero())
		})

		It("re-reads tunables on enable without changing state", func() {
			vc.SetVelocity(500)
			Expect(tunables.SetParam("p", 0.5)).To(Succeed())
			Expect(motor.gainPush).To(HaveLen(1))

			vc.OnEnable()
			Expect(motor.gainPush).To(HaveLen(2))
			Expect(motor.gainPush[1].P).To(Equal(0.5))
			Expect(vc.IsActive()).To(BeTrue())
			Expect(vc.Desired()).To(Equal(500.0))
		})
	})

	Describe("distance scheduling", func() {
		It("uses the exact table entry at a breakpoint", func() {
			vc.SetDistance(10)
			Expect(vc.Desired()).To(Equal(4300.0))
			Expect(vc.IsActive()).To(BeTrue())
		})

		It("interpolates between breakpoints", func() {
			vc.SetDistance(9.5)
			Expect(vc.Desired()).To(BeNumerically("~", 4275, 1e-9))
		})

		It("clamps outside the table", func() {
			vc.SetDistance(1)
			Expect(vc.Desired()).To(Equal(4620.0))
			vc.SetDistance(40)
			Expect(vc.Desired()).To(Equal(4220.0))
		})
	})

	Describe("Tick", func() {
		It("issues a neutral command while idle", func() {
			motor.velocity = 100
			vc.Tick()
			Expect(motor.last()).To(Equal(command{openLoop: 0}))
		})

		It("issues closed-loop velocity plus feedforward while active", func() {
			vc.SetVelocity(1000)
			motor.velocity = gear.ToInternal(900)
			vc.Tick()

			Expect(vc.Measured()).To(BeNumerically("~", 900, 1e-9))
			Expect(vc.DesiredAcceleration()).To(BeNumerically("~", 100, 1e-9))
			want := ff.Calculate(1000, 100)
			Expect(vc.Feedforward()).To(BeNumerically("~", want, 1e-12))

			cmd := motor.last()
			Expect(cmd.closedLoop).To(BeTrue())
			Expect(cmd.target).To(BeNumerically("~", 500, 1e-9))
			Expect(cmd.feedforward).To(BeNumerically("~", want, 1e-12))
		})

		It("computes feedforward even while idle", func() {
			motor.velocity = gear.ToInternal(300)
			vc.Tick()
			Expect(vc.DesiredAcceleration()).To(BeNumerically("~", -300, 1e-9))
			Expect(vc.Feedforward()).To(BeNumerically("~", ff.Ka*-300, 1e-12))
		})

		It("publishes telemetry every tick", func() {
			vc.SetVelocity(1000)
			motor.velocity = gear.ToInternal(960)
			vc.Tick()

			want := map[string]float64{
				"desired_rpm":   1000,
				"desired_accel": 40,
				"feedforward":   ff.Calculate(1000, 40),
				"actual_rpm":    960,
				"at_setpoint":   1,
			}
			approx := cmp.Comparer(func(a, b float64) bool { return a-b < 1e-9 && b-a < 1e-9 })
			Expect(cmp.Diff(want, map[string]float64(sink), approx)).To(BeEmpty())
		})
	})

	Describe("IsAtSetpoint", func() {
		DescribeTable("tolerance band",
			func(desired, measured float64, expected bool) {
				vc.SetVelocity(desired)
				motor.velocity = gear.ToInternal(measured)
				Expect(vc.IsAtSetpoint()).To(Equal(expected))
				Expect(vc.IsReady()).To(Equal(expected))
			},
			Entry("inside below", 1000.0, 960.0, true),
			Entry("inside above", 1000.0, 1040.0, true),
			Entry("on the edge", 1000.0, 950.0, true),
			Entry("outside below", 1000.0, 940.0, false),
			Entry("outside above", 1000.0, 1060.0, false),
		)

		It("requires exactly zero at a zero setpoint", func() {
			motor.velocity = 0
			Expect(vc.IsAtSetpoint()).To(BeTrue())
			motor.velocity = 0.001
			Expect(vc.IsAtSetpoint()).To(BeFalse())
		})

		It("stays false while the mechanism never converges", func() {
			vc.SetVelocity(1000)
			motor.velocity = gear.ToInternal(500)
			for i := 0; i < 100; i++ {
				vc.Tick()
				Expect(vc.IsAtSetpoint()).To(BeFalse())
			}
		})
	})
})

var _ = Describe("NewVelocity", func() {
	table, _ := schedule.New([]schedule.Breakpoint{{Distance: 0, Velocity: 0}, {Distance: 1, Velocity: 1}})

	DescribeTable("rejects bad configuration",
		func(cfg VelocityConfig, want error) {
			_, err := NewVelocity(cfg, &fakeMotor{}, nil, nil)
			Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			var cerr *dynamo.ConfigError
			Expect(errors.As(err, &cerr)).To(BeTrue())
		},
		Entry("missing gear", VelocityConfig{Tolerance: 0.05, Table: table}, dynamo.ErrGearRatio),
		Entry("negative tolerance", VelocityConfig{Gear: units.MustGearRatio(1), Tolerance: -0.1, Table: table}, dynamo.ErrTolerance),
		Entry("missing table", VelocityConfig{Gear: units.MustGearRatio(1), Tolerance: 0.05}, dynamo.ErrNoTable),
	)

	It("rejects a missing motor instead of panicking", func() {
		cfg := VelocityConfig{Gear: units.MustGearRatio(1), Tolerance: 0.05, Table: table}
		var vc *Velocity
		var err error
		Expect(func() { vc, err = NewVelocity(cfg, nil, nil, nil) }).NotTo(Panic())
		Expect(vc).To(BeNil())
		Expect(err).To(MatchError(dynamo.ErrNoMotor))
		var cerr *dynamo.ConfigError
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(cerr.Field).To(Equal("motor"))
	})
})
