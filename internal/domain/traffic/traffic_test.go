package traffic_test

import (
	"math/rand"
	"testing"

	"github.com/ovation22/TripleDerby-sub000/internal/domain/model"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/traffic"
	"github.com/ovation22/TripleDerby-sub000/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func mustCompetitor(id string, attrs model.Attributes, style model.RunningStyle) model.Competitor {
	c, err := model.NewCompetitor(id, id, attrs, style)
	if err != nil {
		panic(err)
	}
	return c
}

func buildField(fieldSize int, comps []model.Competitor, lanes []int) *model.Field {
	rc, err := model.NewRaceContext(10, model.SurfaceDirt, model.ConditionFast, fieldSize)
	if err != nil {
		panic(err)
	}
	f, err := model.NewField(rc, comps, lanes)
	if err != nil {
		panic(err)
	}
	return f
}

func evenAttrs() model.Attributes {
	return model.Attributes{Speed: 50, Stamina: 50, Agility: 50, Durability: 50}
}

// planUntilAttempt retries Plan with reset positioning state until the
// probabilistic gate lets an attempt through.
func planUntilAttempt(m *traffic.Manager, f *model.Field, idx, tick, lane, cooldown int) traffic.Decision {
	for i := 0; i < 1000; i++ {
		st := f.State(idx)
		st.Lane = lane
		st.Cooldown = cooldown
		st.PenaltyTicks = 0
		if d := m.Plan(f, idx, tick); d.Attempted {
			return d
		}
	}
	return traffic.Decision{}
}

func TestCooldownThreshold(t *testing.T) {
	Convey("Given the traffic manager", t, func() {
		m := traffic.New()

		Convey("Then agility shortens the threshold from 10 down to 0", func() {
			So(m.CooldownThreshold(model.Attributes{Agility: 0}), ShouldEqual, 10)
			So(m.CooldownThreshold(model.Attributes{Agility: 50}), ShouldEqual, 5)
			So(m.CooldownThreshold(model.Attributes{Agility: 100}), ShouldEqual, 0)
		})
	})
}

func TestOvertakeGap(t *testing.T) {
	Convey("Given the traffic manager", t, func() {
		m := traffic.New()

		Convey("Then the base gap is 0.25 at midpoint speed", func() {
			So(m.OvertakeGap(evenAttrs(), 0.2), ShouldAlmostEqual, 0.25)
		})

		Convey("Then high speed widens it mildly", func() {
			gap := m.OvertakeGap(model.Attributes{Speed: 100}, 0.2)
			So(gap, ShouldAlmostEqual, 0.275)
		})

		Convey("Then the final quarter widens it by half", func() {
			So(m.OvertakeGap(evenAttrs(), 0.8), ShouldAlmostEqual, 0.375)
		})
	})
}

func TestDesiredLane(t *testing.T) {
	Convey("Given one competitor of each style in a 10-lane field", t, func() {
		m := traffic.New()
		comps := []model.Competitor{
			mustCompetitor("rail", evenAttrs(), model.StyleRailRunner),
			mustCompetitor("front", evenAttrs(), model.StyleFrontRunner),
			mustCompetitor("stalker", evenAttrs(), model.StyleStalker),
			mustCompetitor("closer", evenAttrs(), model.StyleCloser),
			mustCompetitor("charger", evenAttrs(), model.StyleCharger),
		}
		f := buildField(10, comps, []int{5, 6, 9, 2, 3})

		Convey("Then the rail-runner always wants lane 1", func() {
			So(m.DesiredLane(f, 0, 0.1), ShouldEqual, 1)
			So(m.DesiredLane(f, 0, 0.9), ShouldEqual, 1)
		})

		Convey("Then the front-runner stays put", func() {
			So(m.DesiredLane(f, 1, 0.1), ShouldEqual, 6)
		})

		Convey("Then the stalker drifts one lane toward the center band", func() {
			// Center of a 10-lane field is lane 5; lane 9 is outside the band.
			So(m.DesiredLane(f, 2, 0.5), ShouldEqual, 8)

			f.State(2).Lane = 5
			So(m.DesiredLane(f, 2, 0.5), ShouldEqual, 5)
		})

		Convey("Then the closer sits tight until the final quarter", func() {
			So(m.DesiredLane(f, 3, 0.5), ShouldEqual, 2)
		})

		Convey("Then the closer hunts overtaking targets late", func() {
			// Two catchable competitors ahead in lane 3; lane 1 and the
			// closer's own lane 2 are empty ahead.
			f.State(3).Distance = 5.0
			f.State(0).Lane, f.State(0).Distance = 3, 5.5
			f.State(4).Lane, f.State(4).Distance = 3, 5.9
			So(m.DesiredLane(f, 3, 0.8), ShouldEqual, 3)
		})

		Convey("Then the charger seeks the emptiest nearby lane ahead", func() {
			// Charger in lane 3; lane 3 has traffic right ahead, lane 2
			// is empty in the lookahead window.
			f.State(4).Distance = 5.0
			f.State(3).Lane, f.State(3).Distance = 3, 5.3
			So(m.DesiredLane(f, 4, 0.3), ShouldEqual, 2)
		})
	})
}

func TestPlanGating(t *testing.T) {
	Convey("Given a rail-runner in lane 2 with lane 1 wide open", t, func() {
		m := traffic.New(
			traffic.WithRand(rand.New(rand.NewSource(3))),
			traffic.WithGateProbability(model.StyleRailRunner, 1.0),
		)
		comps := []model.Competitor{
			mustCompetitor("rail", evenAttrs(), model.StyleRailRunner),
			mustCompetitor("other", evenAttrs(), model.StyleFrontRunner),
		}
		f := buildField(8, comps, []int{2, 5})
		f.State(0).Distance = 3.0
		f.State(1).Distance = 3.0

		Convey("When the cooldown has matured", func() {
			d := planUntilAttempt(m, f, 0, 50, 2, 5)

			Convey("Then the move is a clean proactive drift to lane 1", func() {
				So(d.Attempted, ShouldBeTrue)
				So(d.Changed, ShouldBeTrue)
				So(d.Lane, ShouldEqual, 1)
				So(d.Kind, ShouldEqual, types.EventDrift)
				So(d.PenaltyTicks, ShouldEqual, 0)
				So(d.RiskyRolled, ShouldBeFalse)
			})
		})

		Convey("When the cooldown is still running", func() {
			f.State(0).Cooldown = 4
			d := m.Plan(f, 0, 50)

			Convey("Then no attempt is made", func() {
				So(d.Attempted, ShouldBeFalse)
				So(d.Changed, ShouldBeFalse)
				So(d.Lane, ShouldEqual, 2)
			})
		})

		Convey("When the gate probability is zero", func() {
			strict := traffic.New(
				traffic.WithRand(rand.New(rand.NewSource(3))),
				traffic.WithGateProbability(model.StyleRailRunner, 0),
			)
			f.State(0).Cooldown = 10
			for i := 0; i < 100; i++ {
				d := strict.Plan(f, 0, 50)
				So(d.Attempted, ShouldBeFalse)
			}
		})
	})
}

func TestPlanCleanOvertake(t *testing.T) {
	Convey("Given a front-runner stuck behind a rival with both sides open", t, func() {
		m := traffic.New(
			traffic.WithRand(rand.New(rand.NewSource(5))),
			traffic.WithGateProbability(model.StyleFrontRunner, 1.0),
		)
		comps := []model.Competitor{
			mustCompetitor("front", evenAttrs(), model.StyleFrontRunner),
			mustCompetitor("rival", evenAttrs(), model.StyleCloser),
		}
		f := buildField(4, comps, []int{2, 3})
		f.State(0).Distance = 5.0
		f.State(1).Lane, f.State(1).Distance = 2, 5.2

		Convey("When an attempt goes through", func() {
			d := planUntilAttempt(m, f, 0, 50, 2, 10)

			Convey("Then it is a clean overtaking change to the inside", func() {
				So(d.WantsOvertake, ShouldBeTrue)
				So(d.Changed, ShouldBeTrue)
				So(d.Lane, ShouldEqual, 1)
				So(d.Kind, ShouldEqual, types.EventCleanChange)
				So(d.RiskyRolled, ShouldBeFalse)
			})
		})
	})
}

func TestPlanClearance(t *testing.T) {
	Convey("Given a rail-runner whose inside lane is occupied", t, func() {
		m := traffic.New(
			traffic.WithRand(rand.New(rand.NewSource(9))),
			traffic.WithGateProbability(model.StyleRailRunner, 1.0),
		)
		comps := []model.Competitor{
			mustCompetitor("rail", evenAttrs(), model.StyleRailRunner),
			mustCompetitor("blocker", evenAttrs(), model.StyleFrontRunner),
			mustCompetitor("outer", evenAttrs(), model.StyleFrontRunner),
		}
		f := buildField(3, comps, []int{2, 1, 3})
		f.State(0).Distance = 5.0
		f.State(2).Distance = 9.0 // far away, lane 3 clear

		Convey("When the blocker sits just ahead within the forward window", func() {
			f.State(1).Distance = 5.15

			Convey("Then the move squeezes toward the rail, never outward", func() {
				for i := 0; i < 200; i++ {
					d := planUntilAttempt(m, f, 0, 50, 2, 10)
					So(d.WantsOvertake, ShouldBeFalse)
					So(d.RiskyRolled, ShouldBeTrue)
					So(d.Lane, ShouldNotEqual, 3)
					if d.Changed {
						So(d.Lane, ShouldEqual, 1)
						So(d.Kind, ShouldEqual, types.EventRiskySqueeze)
					}
				}
			})
		})

		Convey("When the blocker sits just behind within the trailing window", func() {
			f.State(1).Distance = 4.95

			Convey("Then lane 1 is still not clear", func() {
				So(f.LaneClear(0, 1, traffic.ClearBehind, traffic.ClearAhead), ShouldBeFalse)
			})
		})

		Convey("When an overtaker finds the inside blocked but the outside open", func() {
			f.State(2).Lane, f.State(2).Distance = 2, 5.15 // own-lane traffic, overtake intent
			f.State(1).Distance = 5.05                     // lane 1 blocked
			d := planUntilAttempt(m, f, 0, 50, 2, 10)

			Convey("Then the overtake takes the open outside lane cleanly", func() {
				So(d.WantsOvertake, ShouldBeTrue)
				So(d.Changed, ShouldBeTrue)
				So(d.Lane, ShouldEqual, 3)
				So(d.Kind, ShouldEqual, types.EventCleanChange)
				So(d.RiskyRolled, ShouldBeFalse)
			})
		})

		Convey("When the blocker is outside the asymmetric window", func() {
			f.State(1).Distance = 5.25
			d := planUntilAttempt(m, f, 0, 50, 2, 10)

			Convey("Then the change lands cleanly in lane 1", func() {
				So(d.Changed, ShouldBeTrue)
				So(d.Lane, ShouldEqual, 1)
				So(d.RiskyRolled, ShouldBeFalse)
			})
		})
	})
}

func TestRiskySqueezeDistribution(t *testing.T) {
	Convey("Given a boxed-in rail-runner with agility 50", t, func() {
		m := traffic.New(
			traffic.WithRand(rand.New(rand.NewSource(17))),
			traffic.WithGateProbability(model.StyleRailRunner, 1.0),
		)
		comps := []model.Competitor{
			mustCompetitor("rail", evenAttrs(), model.StyleRailRunner),
			mustCompetitor("inner", evenAttrs(), model.StyleFrontRunner),
			mustCompetitor("outer", evenAttrs(), model.StyleFrontRunner),
		}
		f := buildField(3, comps, []int{2, 1, 3})
		f.State(0).Distance = 5.0
		f.State(1).Distance = 5.1  // lane 1 blocked
		f.State(2).Distance = 5.05 // lane 3 blocked

		Convey("When attempting many squeezes", func() {
			const trials = 10000
			rolls, successes := 0, 0
			for i := 0; i < trials; i++ {
				f.State(0).Lane = 2
				f.State(0).Cooldown = 10
				f.State(0).PenaltyTicks = 0
				d := m.Plan(f, 0, 50)
				if d.RiskyRolled {
					rolls++
					if d.RiskySuccess {
						successes++
						So(d.Lane, ShouldEqual, 1)
						So(d.Kind, ShouldEqual, types.EventRiskySqueeze)
						So(d.PenaltyTicks, ShouldEqual, 3)
					}
				}
			}

			Convey("Then roughly a quarter of squeezes succeed", func() {
				// The position-scaled gate lets most attempts through.
				So(rolls, ShouldBeGreaterThan, trials/2)
				ratio := float64(successes) / float64(rolls)
				So(ratio, ShouldBeBetween, 0.21, 0.29)
			})
		})
	})
}

func TestBlockedSpeed(t *testing.T) {
	Convey("Given a mover running up on traffic", t, func() {
		const mover, leader = 0.12, 0.10

		Convey("Then the charger and stalker cap at 99% of the leader", func() {
			spd, frustrated := traffic.BlockedSpeed(model.StyleCharger, mover, leader, true, false)
			So(spd, ShouldAlmostEqual, leader*0.99)
			So(frustrated, ShouldBeFalse)

			spd, _ = traffic.BlockedSpeed(model.StyleStalker, mover, leader, false, true)
			So(spd, ShouldAlmostEqual, leader*0.99)
		})

		Convey("Then the rail-runner is extra cautious at 98%", func() {
			spd, _ := traffic.BlockedSpeed(model.StyleRailRunner, mover, leader, false, false)
			So(spd, ShouldAlmostEqual, leader*0.98)
		})

		Convey("Then the closer barely notices at 99.9%", func() {
			spd, _ := traffic.BlockedSpeed(model.StyleCloser, mover, leader, false, false)
			So(spd, ShouldAlmostEqual, leader*0.999)
		})

		Convey("Then caps never raise a slower mover's speed", func() {
			spd, _ := traffic.BlockedSpeed(model.StyleCharger, 0.08, leader, false, false)
			So(spd, ShouldAlmostEqual, 0.08)
		})

		Convey("Then the front-runner takes the frustration cut only when boxed in with intent", func() {
			spd, frustrated := traffic.BlockedSpeed(model.StyleFrontRunner, mover, leader, true, false)
			So(frustrated, ShouldBeTrue)
			So(spd, ShouldAlmostEqual, mover*0.97)

			spd, frustrated = traffic.BlockedSpeed(model.StyleFrontRunner, mover, leader, true, true)
			So(frustrated, ShouldBeFalse)
			So(spd, ShouldAlmostEqual, mover)

			spd, frustrated = traffic.BlockedSpeed(model.StyleFrontRunner, mover, leader, false, false)
			So(frustrated, ShouldBeFalse)
			So(spd, ShouldAlmostEqual, mover)
		})
	})
}

func TestIntent(t *testing.T) {
	Convey("Given a front-runner with a rival just ahead in its lane", t, func() {
		m := traffic.New()
		comps := []model.Competitor{
			mustCompetitor("front", evenAttrs(), model.StyleFrontRunner),
			mustCompetitor("rival", evenAttrs(), model.StyleCloser),
			mustCompetitor("b1", evenAttrs(), model.StyleCloser),
			mustCompetitor("b2", evenAttrs(), model.StyleCloser),
		}
		f := buildField(4, comps, []int{1, 2, 3, 4})
		f.State(0).Lane, f.State(0).Distance = 2, 5.0
		f.State(1).Lane, f.State(1).Distance = 2, 5.2

		Convey("When the adjacent lanes are open", func() {
			f.State(2).Lane, f.State(2).Distance = 1, 9.0
			f.State(3).Lane, f.State(3).Distance = 3, 9.0
			wants, clear := m.Intent(f, 0, 50)

			Convey("Then the overtake intent is live with clearance", func() {
				So(wants, ShouldBeTrue)
				So(clear, ShouldBeTrue)
			})
		})

		Convey("When both adjacent lanes are occupied", func() {
			f.State(2).Lane, f.State(2).Distance = 1, 5.05
			f.State(3).Lane, f.State(3).Distance = 3, 5.1
			wants, clear := m.Intent(f, 0, 50)

			Convey("Then the competitor is boxed in with live intent", func() {
				So(wants, ShouldBeTrue)
				So(clear, ShouldBeFalse)
			})
		})

		Convey("When the rival pulls away beyond the trigger gap", func() {
			f.State(1).Distance = 5.4
			wants, _ := m.Intent(f, 0, 50)

			Convey("Then the overtake intent lapses", func() {
				So(wants, ShouldBeFalse)
			})
		})
	})
}
