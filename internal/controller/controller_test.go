package controller

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/jointsim/internal/clock"
	"github.com/san-kum/jointsim/internal/config"
	"github.com/san-kum/jointsim/internal/iface"
	"github.com/san-kum/jointsim/internal/logging"
)

var _ = Describe("Controller", func() {
	var (
		mockCtrl *gomock.Controller
		plugin   *MockPlugin
		clk      *clock.SimClock
		host     Host
		logs     *observer.ObservedLogs
		c        *Controller
	)

	BeforeEach(func() {
		var err error
		mockCtrl = gomock.NewController(GinkgoT())
		plugin = NewMockPlugin(mockCtrl)
		clk, err = clock.NewSimClock(0.01)
		Expect(err).NotTo(HaveOccurred())
		host = Host{Kind: HostModel, Name: "arm", Models: []string{"robot", "arm"}}

		logger, observed := logging.NewObserved()
		logs = observed
		c, err = New(host, plugin, clk, WithLogger(logger))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	withIfaces := func(ifaces ...iface.Iface) {
		next := 0
		c.factory = FactoryFunc(func(typ, id string) (iface.Iface, error) {
			i := ifaces[next]
			next++
			return i, nil
		})
		cfg := config.ControllerConfig{Name: "ctl", Type: "test"}
		for range ifaces {
			cfg.Interfaces = append(cfg.Interfaces, config.InterfaceConfig{Type: iface.TypeJointState, Name: "out"})
		}
		plugin.EXPECT().Load(c, gomock.Any()).Return(nil)
		Expect(c.Load(cfg)).To(Succeed())
	}

	mockIface := func(typ, id string) *MockIface {
		m := NewMockIface(mockCtrl)
		m.EXPECT().Type().Return(typ).AnyTimes()
		m.EXPECT().ID().Return(id).AnyTimes()
		return m
	}

	Context("construction", func() {
		It("should reject unsupported hosts", func() {
			for _, kind := range []HostKind{HostUnknown, HostKind(7)} {
				_, err := New(Host{Kind: kind, Name: "link"}, plugin, clk)
				Expect(errors.Is(err, ErrUnsupportedHost)).To(BeTrue())
			}
		})

		It("should accept sensor hosts", func() {
			_, err := New(Host{Kind: HostSensor, Name: "cam", Models: []string{"arm"}}, plugin, clk)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should require a plugin and a clock", func() {
			_, err := New(host, nil, clk)
			Expect(err).To(MatchError(ErrNoPlugin))
			_, err = New(host, plugin, nil)
			Expect(err).To(MatchError(ErrNoClock))
		})

		It("should default to 10 Hz and not always on", func() {
			Expect(c.UpdateRate()).To(Equal(10.0))
			Expect(c.UpdatePeriod()).To(BeNumerically("~", 0.1, 1e-12))
			Expect(c.AlwaysOn()).To(BeFalse())
		})
	})

	Context("load", func() {
		It("should apply the configured settings", func() {
			plugin.EXPECT().Load(c, map[string]any{"gain": 2.0}).Return(nil)
			Expect(c.Load(config.ControllerConfig{
				Name:       "ctl",
				Type:       "test",
				AlwaysOn:   true,
				UpdateRate: config.Float(0),
				Params:     map[string]any{"gain": 2.0},
			})).To(Succeed())

			Expect(c.Name()).To(Equal("ctl"))
			Expect(c.TypeName()).To(Equal("test"))
			Expect(c.AlwaysOn()).To(BeTrue())
			Expect(c.UpdatePeriod()).To(Equal(0.0))
		})

		It("should scope interface ids and skip unknown types", func() {
			hub := iface.NewHub(iface.TypeJointState)
			c.factory = hub
			plugin.EXPECT().Load(c, gomock.Any()).Return(nil)

			Expect(c.Load(config.ControllerConfig{
				Name: "ctl",
				Interfaces: []config.InterfaceConfig{
					{Type: iface.TypeJointState, Name: "states"},
					{Type: "laser", Name: "scan"},
				},
			})).To(Succeed())

			Expect(c.InterfaceNames()).To(Equal([]string{"robot::arm::states>>joint_state"}))
			Expect(hub.IDs()).To(Equal([]string{"robot::arm::states"}))
			Expect(logs.FilterMessageSnippet("no support for interface type").Len()).To(Equal(1))
		})

		It("should fail on factory errors", func() {
			boom := errors.New("boom")
			c.factory = FactoryFunc(func(typ, id string) (iface.Iface, error) { return nil, boom })
			err := c.Load(config.ControllerConfig{
				Name:       "ctl",
				Interfaces: []config.InterfaceConfig{{Type: iface.TypePosition, Name: "p"}},
			})
			Expect(errors.Is(err, boom)).To(BeTrue())
		})

		It("should fail on a negative rate", func() {
			err := c.Load(config.ControllerConfig{Name: "ctl", UpdateRate: config.Float(-2)})
			Expect(errors.Is(err, ErrNegativeRate)).To(BeTrue())
		})

		It("should surface plugin load errors", func() {
			plugin.EXPECT().Load(c, gomock.Any()).Return(errors.New("bad params"))
			Expect(c.Load(config.ControllerConfig{Name: "ctl"})).To(MatchError(ContainSubstring("bad params")))
		})
	})

	Context("activity", func() {
		It("should follow alwaysOn without interfaces", func() {
			Expect(c.IsActive()).To(BeFalse())
			c.SetAlwaysOn(true)
			Expect(c.IsActive()).To(BeTrue())
		})

		It("should follow the open count of its interfaces", func() {
			out := mockIface(iface.TypeJointState, "robot::arm::out")
			gomock.InOrder(
				out.EXPECT().OpenCount().Return(0),
				out.EXPECT().OpenCount().Return(1),
			)
			withIfaces(out)

			Expect(c.IsActive()).To(BeFalse())
			Expect(c.IsActive()).To(BeTrue())
		})

		It("should be active if any interface is open", func() {
			a := mockIface(iface.TypeJointState, "a")
			b := mockIface(iface.TypeJointState, "b")
			a.EXPECT().OpenCount().Return(0)
			b.EXPECT().OpenCount().Return(3)
			withIfaces(a, b)

			Expect(c.IsActive()).To(BeTrue())
		})
	})

	Context("update", func() {
		BeforeEach(func() {
			plugin.EXPECT().Init().Return(nil)
			c.SetAlwaysOn(true)
			Expect(c.Init()).To(Succeed())
		})

		It("should run the plugin once a period has elapsed", func() {
			plugin.EXPECT().Update(0.10).Return(nil)

			Expect(c.Update(0.09, 0.01)).To(Succeed())
			Expect(c.LastUpdate()).To(Equal(0.0))
			Expect(c.Update(0.10, 0.01)).To(Succeed())
			Expect(c.LastUpdate()).To(Equal(0.10))
		})

		It("should anchor on the clock at init", func() {
			for range 50 {
				clk.Advance()
			}
			plugin.EXPECT().Init().Return(nil)
			Expect(c.Init()).To(Succeed())
			Expect(c.LastUpdate()).To(BeNumerically("~", 0.5, 1e-12))

			Expect(c.Tick()).To(Succeed())
			for range 20 {
				clk.Advance()
			}
			plugin.EXPECT().Update(gomock.Any()).Return(nil)
			Expect(c.Tick()).To(Succeed())
		})

		It("should run on every tick at rate zero", func() {
			Expect(c.SetUpdateRate(0)).To(Succeed())
			plugin.EXPECT().Update(gomock.Any()).Return(nil).Times(3)
			for i := 1; i <= 3; i++ {
				Expect(c.Update(float64(i)*0.01, 0.01)).To(Succeed())
			}
		})

		It("should skip inactive controllers", func() {
			c.SetAlwaysOn(false)
			Expect(c.Update(5, 0.01)).To(Succeed())
			Expect(c.LastUpdate()).To(Equal(0.0))
		})

		It("should advance the schedule when the plugin fails", func() {
			plugin.EXPECT().Update(1.0).Return(errors.New("diverged"))
			err := c.Update(1.0, 0.01)
			Expect(err).To(MatchError(ContainSubstring("diverged")))
			Expect(c.LastUpdate()).To(Equal(1.0))
		})
	})

	Context("fini", func() {
		It("should close interfaces once and go inactive", func() {
			a := mockIface(iface.TypeJointState, "a")
			a.EXPECT().OpenCount().Return(1)
			a.EXPECT().Close().Return(nil).Times(1)
			withIfaces(a)
			plugin.EXPECT().Fini().Return(nil).Times(1)

			Expect(c.IsActive()).To(BeTrue())
			Expect(c.Fini()).To(Succeed())
			Expect(c.IsActive()).To(BeFalse())
			Expect(c.InterfaceNames()).To(BeEmpty())
			Expect(c.Fini()).To(Succeed())
		})

		It("should stay active when always on", func() {
			c.SetAlwaysOn(true)
			plugin.EXPECT().Fini().Return(nil)
			Expect(c.Fini()).To(Succeed())
			Expect(c.IsActive()).To(BeTrue())
		})

		It("should close everything and combine errors", func() {
			a := mockIface(iface.TypeJointState, "a")
			b := mockIface(iface.TypeJointState, "b")
			errA := errors.New("a failed")
			errP := errors.New("plugin failed")
			a.EXPECT().Close().Return(errA)
			b.EXPECT().Close().Return(nil)
			withIfaces(a, b)
			plugin.EXPECT().Fini().Return(errP)

			err := c.Fini()
			Expect(errors.Is(err, errA)).To(BeTrue())
			Expect(errors.Is(err, errP)).To(BeTrue())
		})
	})

	Context("interface lookup", func() {
		var pos0, state, pos1 *MockIface

		BeforeEach(func() {
			pos0 = mockIface(iface.TypePosition, "p0")
			state = mockIface(iface.TypeJointState, "s")
			pos1 = mockIface(iface.TypePosition, "p1")
			withIfaces(pos0, state, pos1)
		})

		It("should return the n-th interface of a type", func() {
			i, err := c.Iface(iface.TypePosition, true, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(i).To(BeIdenticalTo(pos0))

			i, err = c.Iface(iface.TypePosition, true, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(i).To(BeIdenticalTo(pos1))
		})

		It("should fail only for mandatory interfaces", func() {
			_, err := c.Iface(iface.TypeActuator, true, 0)
			Expect(errors.Is(err, ErrMissingIface)).To(BeTrue())

			i, err := c.Iface(iface.TypePosition, false, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(i).To(BeNil())
		})

		It("should list ids with types", func() {
			Expect(c.InterfaceNames()).To(Equal([]string{
				"p0>>position", "s>>joint_state", "p1>>position",
			}))
		})
	})

	It("should save its settings", func() {
		hub := iface.NewHub()
		c.factory = hub
		plugin.EXPECT().Load(c, gomock.Any()).Return(nil)
		Expect(c.Load(config.ControllerConfig{
			Name:       "ctl",
			Type:       "test",
			Interfaces: []config.InterfaceConfig{{Type: iface.TypeSimTime, Name: "clock"}},
		})).To(Succeed())
		Expect(c.SetUpdateRate(25)).To(Succeed())

		var buf bytes.Buffer
		Expect(c.Save(&buf)).To(Succeed())

		var saved config.ControllerConfig
		Expect(yaml.Unmarshal(buf.Bytes(), &saved)).To(Succeed())
		Expect(saved.Name).To(Equal("ctl"))
		Expect(saved.Host).To(Equal("arm"))
		Expect(saved.Rate()).To(Equal(25.0))
		Expect(saved.Interfaces).To(Equal([]config.InterfaceConfig{{Type: iface.TypeSimTime, Name: "clock"}}))
	})

	It("should delegate reset", func() {
		plugin.EXPECT().Reset().Return(nil)
		Expect(c.Reset()).To(Succeed())
	})
})
