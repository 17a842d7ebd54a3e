package fatigue_test

import (
	"testing"

	"github.com/ovation22/TripleDerby-sub000/internal/domain/fatigue"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func mustCompetitor(attrs model.Attributes, style model.RunningStyle) model.Competitor {
	c, err := model.NewCompetitor("c", "c", attrs, style)
	if err != nil {
		panic(err)
	}
	return c
}

func mustContext(distance float64) model.RaceContext {
	rc, err := model.NewRaceContext(distance, model.SurfaceDirt, model.ConditionFast, 8)
	if err != nil {
		panic(err)
	}
	return rc
}

func TestBaseRate(t *testing.T) {
	Convey("Given the default fatigue model", t, func() {
		m := fatigue.New()

		Convey("Then the base rate steps up across the four distance bands", func() {
			sprint := m.BaseRate(6)
			middle := m.BaseRate(10)
			classic := m.BaseRate(13)
			marathon := m.BaseRate(16)

			So(sprint, ShouldBeLessThan, middle)
			So(middle, ShouldBeLessThan, classic)
			So(classic, ShouldBeLessThan, marathon)
		})
	})
}

func TestEfficiency(t *testing.T) {
	Convey("Given the default fatigue model", t, func() {
		m := fatigue.New()

		Convey("Then high stamina and durability deplete slowest", func() {
			best := m.Efficiency(model.Attributes{Stamina: 100, Durability: 100})
			worst := m.Efficiency(model.Attributes{Stamina: 0, Durability: 0})
			mid := m.Efficiency(model.Attributes{Stamina: 50, Durability: 50})

			So(best, ShouldAlmostEqual, 0.64, 0.01)
			So(worst, ShouldAlmostEqual, 1.38, 0.01)
			So(mid, ShouldBeBetween, best, worst)
		})
	})
}

func TestPaceMultiplier(t *testing.T) {
	Convey("Given the default fatigue model", t, func() {
		m := fatigue.New()

		Convey("Then reference pace is neutral", func() {
			So(m.PaceMultiplier(1.0), ShouldAlmostEqual, 1.0)
		})

		Convey("Then pushing harder burns faster, coasting slower", func() {
			So(m.PaceMultiplier(1.1), ShouldBeGreaterThan, 1.0)
			So(m.PaceMultiplier(0.9), ShouldBeLessThan, 1.0)
		})

		Convey("Then the multiplier never drops below the floor", func() {
			So(m.PaceMultiplier(0), ShouldAlmostEqual, 0.5)
		})
	})
}

func TestStyleMultiplier(t *testing.T) {
	Convey("Given the default fatigue model", t, func() {
		m := fatigue.New()

		Convey("Then the closer conserves early and burns late", func() {
			So(m.StyleMultiplier(model.StyleCloser, 0.2), ShouldAlmostEqual, 0.85)
			So(m.StyleMultiplier(model.StyleCloser, 0.9), ShouldAlmostEqual, 1.25)
		})

		Convey("Then the charger burns early and eases late", func() {
			So(m.StyleMultiplier(model.StyleCharger, 0.1), ShouldAlmostEqual, 1.20)
			So(m.StyleMultiplier(model.StyleCharger, 0.5), ShouldAlmostEqual, 0.95)
		})

		Convey("Then the rail-runner paces evenly", func() {
			So(m.StyleMultiplier(model.StyleRailRunner, 0.1), ShouldAlmostEqual, 1.0)
			So(m.StyleMultiplier(model.StyleRailRunner, 0.9), ShouldAlmostEqual, 1.0)
		})
	})
}

func TestSpeedFactorCurve(t *testing.T) {
	Convey("Given the default fatigue model", t, func() {
		m := fatigue.New()

		Convey("Then the curve hits the expected anchor points", func() {
			So(m.SpeedFactor(1.0), ShouldAlmostEqual, 1.00, 0.001)
			So(m.SpeedFactor(0.5), ShouldAlmostEqual, 0.99, 0.001)
			So(m.SpeedFactor(0.25), ShouldAlmostEqual, 0.9675, 0.001)
			So(m.SpeedFactor(0.0), ShouldAlmostEqual, 0.91, 0.001)
		})

		Convey("Then the factor is continuous at the half-tank knee", func() {
			So(m.SpeedFactor(0.5001), ShouldAlmostEqual, m.SpeedFactor(0.4999), 0.001)
		})

		Convey("Then full exhaustion still leaves positive speed", func() {
			So(m.SpeedFactor(0), ShouldBeGreaterThan, 0.9)
		})

		Convey("Then out-of-range fractions are clamped", func() {
			So(m.SpeedFactor(-0.5), ShouldAlmostEqual, m.SpeedFactor(0))
			So(m.SpeedFactor(2), ShouldAlmostEqual, 1.0)
		})
	})
}

func TestSprintVersusMarathonScenario(t *testing.T) {
	Convey("Given a competitor with maxed stamina and durability", t, func() {
		m := fatigue.New()
		c := mustCompetitor(model.Attributes{Speed: 50, Stamina: 100, Agility: 50, Durability: 100}, model.StyleRailRunner)

		// Simulate depletion at reference effort for the whole race.
		remainingAfter := func(distance float64) float64 {
			rc := mustContext(distance)
			stamina := c.Attrs.Stamina
			for tick := 1; tick <= rc.TotalTicks; tick++ {
				drain := m.Drain(c, rc, model.ReferenceSpeed, rc.Progress(tick))
				stamina -= drain
				if stamina < 0 {
					stamina = 0
				}
			}
			return stamina / c.Attrs.Stamina
		}

		Convey("Then a 6-unit sprint leaves most of the tank", func() {
			So(remainingAfter(6), ShouldBeBetween, 0.6, 0.8)
		})

		Convey("Then a 16-unit marathon nearly empties it", func() {
			So(remainingAfter(16), ShouldBeBetween, 0.0, 0.2)
		})
	})
}
