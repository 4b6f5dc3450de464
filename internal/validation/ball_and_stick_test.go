package validation_test

import (
	"context"
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cablesim/internal/cell"
	"github.com/san-kum/cablesim/internal/fixture"
	"github.com/san-kum/cablesim/internal/mechanism"
	"github.com/san-kum/cablesim/internal/sim"
	"github.com/san-kum/cablesim/internal/spike"
	"github.com/san-kum/cablesim/internal/validation"
)

var _ = Describe("Ball and stick", func() {
	var (
		ctx       context.Context
		simulator *sim.Simulator
		probes    []sim.Probe
	)

	BeforeEach(func() {
		ctx = context.Background()
		simulator = sim.New(mechanism.NewRegistry())
		probes = validation.BallAndStickProbes()
	})

	Context("against the reference fixture", func() {
		var runs []fixture.Run

		BeforeEach(func() {
			var err error
			runs, err = fixture.Load(filepath.Join("testdata", "ball_and_stick.json"))
			if errors.Is(err, fixture.ErrEmpty) {
				Skip("no reference spike data: " + err.Error())
			}
			Expect(err).NotTo(HaveOccurred())
		})

		It("converges and matches the finest baseline", func() {
			outcomes, err := validation.Compare(ctx, simulator, runs, cell.NewBallAndStick, probes, validation.DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			for _, o := range outcomes {
				name, cmp := o.Worst()
				GinkgoWriter.Printf("%5d compartments: %s %v\n", o.Compartments, name, cmp)
			}
			Expect(validation.CheckConvergence(outcomes)).To(Succeed())
			Expect(validation.CheckAccuracy(outcomes, validation.DefaultAccuracy)).To(Succeed())
		})
	})

	Context("against a fine resolution of itself", Ordered, func() {
		var (
			reference fixture.Run
			outcomes  []validation.Outcome
			fired     []string
		)

		BeforeAll(func() {
			ctx := context.Background()
			simulator := sim.New(mechanism.NewRegistry())
			probes := validation.BallAndStickProbes()

			var err error
			reference, err = validation.Baseline(ctx, simulator, cell.NewBallAndStick, 256, probes, sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			for _, p := range probes {
				if len(reference.Measurements[p.Name].Spikes) > 0 {
					fired = append(fired, p.Name)
				}
			}

			path := filepath.Join(GinkgoT().TempDir(), "ball_and_stick.json")
			runs := []fixture.Run{reference}
			for _, n := range []int{4, 16, 64} {
				r := reference
				r.Compartments = n
				runs = append(runs, r)
			}
			Expect(fixture.Write(path, runs)).To(Succeed())

			loaded, err := fixture.Load(path)
			Expect(err).NotTo(HaveOccurred())
			outcomes, err = validation.Compare(ctx, simulator, loaded, cell.NewBallAndStick, probes, validation.Options{
				Duration:       100,
				InitialVoltage: -65,
				Workers:        2,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("fires at the soma", func() {
			Expect(fired).To(ContainElement("soma"))
			for _, o := range outcomes {
				Expect(o.Spikes["soma"]).NotTo(BeEmpty())
			}
		})

		It("orders outcomes by resolution", func() {
			counts := make([]int, len(outcomes))
			for i, o := range outcomes {
				counts[i] = o.Compartments
			}
			Expect(counts).To(Equal([]int{4, 16, 64, 256}))
		})

		It("reproduces the reference exactly at the reference resolution", func() {
			finest := outcomes[len(outcomes)-1]
			for _, name := range fired {
				Expect(finest.Comparisons[name].MaxRelativeError()).To(BeZero(), name)
			}
		})

		It("is closer to the reference at 64 compartments than at 4", func() {
			coarse, medium := outcomes[0], outcomes[2]
			for _, name := range fired {
				Expect(medium.Comparisons[name].MaxRelativeError()).To(
					BeNumerically("<", coarse.Comparisons[name].MaxRelativeError()), name)
				Expect(medium.Comparisons[name].MaxRelativeError()).To(BeNumerically("<", 1e-2), name)
			}
		})

		It("converges strictly from 4 to 16 to 64 compartments", func() {
			Expect(validation.CheckConvergence(firing(outcomes[:3], fired))).To(Succeed())
		})

		It("is within 0.1% of the reference at 64 compartments", func() {
			Expect(validation.CheckAccuracy(firing(outcomes[:3], fired), validation.DefaultAccuracy)).To(Succeed())
		})
	})
})

// firing keeps only the comparisons of the named recording sites.
func firing(outcomes []validation.Outcome, names []string) []validation.Outcome {
	out := make([]validation.Outcome, len(outcomes))
	for i, o := range outcomes {
		o.Comparisons = make(map[string]spike.Comparison, len(names))
		for _, name := range names {
			o.Comparisons[name] = outcomes[i].Comparisons[name]
		}
		out[i] = o
	}
	return out
}
