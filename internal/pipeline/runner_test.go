package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/partvid/internal/config"
	"github.com/san-kum/partvid/internal/dynamo"
	"github.com/san-kum/partvid/internal/pipeline"
)

const scenarioLog = "0\n1,1,0,0,0.1\n1.0\n1,1.5,0,0,0.1"

var _ = Describe("Runner", func() {
	var (
		dir    string
		fakes  *sinks
		obs    *countingObserver
		runner *pipeline.Runner
		base   config.Render
	)

	writeLog := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	jobFor := func(input string) pipeline.Job {
		r := base
		r.BoardSize = 2
		r.RectHeight = 1
		return pipeline.Job{Input: input, Output: pipeline.OutputPath(input, dir), Render: r}
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		fakes = newSinks()
		obs = &countingObserver{}
		base = config.DefaultRender()
		base.Width = 40
		base.Height = 20
		base.Margin = 1
		base.FPS = 2
		runner = &pipeline.Runner{
			Rasterizer: stubRasterizer{},
			Encoder:    config.DefaultConfig().Encoder,
			Jobs:       1,
			Observer:   obs,
			OpenSink:   fakes.open,
		}
	})

	Describe("a single file", func() {
		It("renders the initial, synthetic and event frames in order", func() {
			job := jobFor(writeLog("scenario.txt", scenarioLog))

			res := runner.Run(context.Background(), job)

			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.Frames).To(Equal(3))
			Expect(res.Events).To(Equal(1))
			Expect(res.Timesteps).To(Equal(2))
			Expect(res.End).To(Equal(1.0))

			sink := fakes.get(job.Output)
			Expect(sink.closed).To(BeTrue())
			Expect(sink.frames).To(HaveLen(3))
			Expect(sink.opts.FPS).To(Equal(2))
			Expect(sink.opts.Width).To(Equal(40))

			Expect(frameText(sink.frames[0])).NotTo(ContainSubstring("#Events"))
			Expect(frameText(sink.frames[1])).NotTo(ContainSubstring("#Events"))
			Expect(frameText(sink.frames[2])).To(ContainSubstring("T#Events: 1;"))
			Expect(frameText(sink.frames[0])).To(Equal(frameText(sink.frames[1])))
			Expect(frameText(sink.frames[2])).NotTo(Equal(frameText(sink.frames[1])))

			Expect(obs.frames).To(Equal(3))
			Expect(obs.done).To(HaveLen(1))
		})

		It("produces exactly one frame without a counter for a single timestep", func() {
			job := jobFor(writeLog("single.txt", "0.5\n1,1,0,0,0.1\n"))

			res := runner.Run(context.Background(), job)

			Expect(res.Err).NotTo(HaveOccurred())
			frames := fakes.get(job.Output).frames
			Expect(frames).To(HaveLen(1))
			Expect(frameText(frames[0])).NotTo(ContainSubstring("#Events"))
		})

		It("emits only event frames when interpolation is off", func() {
			job := jobFor(writeLog("raw.txt", "0\n1,1,1,0,0.1\n3\n1,1,0,0,0.1\n7\n1,1,0,0,0.1\n"))
			job.Render.Interpolate = false

			res := runner.Run(context.Background(), job)

			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.Frames).To(Equal(3))
			Expect(frameText(fakes.get(job.Output).frames[2])).To(ContainSubstring("#Events: 2"))
		})

		It("applies the counter step", func() {
			job := jobFor(writeLog("scaled.txt", scenarioLog))
			job.Render.CounterStep = 100

			Expect(runner.Run(context.Background(), job).Err).NotTo(HaveOccurred())
			Expect(frameText(fakes.get(job.Output).frames[2])).To(ContainSubstring("#Events: 100"))
		})

		It("renders identical frames for identical input", func() {
			first := jobFor(writeLog("a.txt", scenarioLog))
			second := jobFor(writeLog("b.txt", scenarioLog))

			Expect(runner.Run(context.Background(), first).Err).NotTo(HaveOccurred())
			Expect(runner.Run(context.Background(), second).Err).NotTo(HaveOccurred())

			Expect(fakes.get(first.Output).frames).To(Equal(fakes.get(second.Output).frames))
		})
	})

	Describe("failures", func() {
		It("reports a parse error and aborts the encoder", func() {
			job := jobFor(writeLog("bad.txt", "0\n1,1,0,0,0.1\n1\n1,2,3\n"))

			res := runner.Run(context.Background(), job)

			var perr *dynamo.ParseError
			Expect(errors.As(res.Err, &perr)).To(BeTrue())
			Expect(perr.Line).To(Equal(4))
			Expect(res.Err).To(MatchError(dynamo.ErrFieldCount))
			Expect(res.Err.Error()).To(HavePrefix(job.Input))

			sink := fakes.get(job.Output)
			Expect(sink.aborted).To(BeTrue())
			Expect(sink.closed).To(BeFalse())
		})

		It("does not start the encoder when the first line is malformed", func() {
			job := jobFor(writeLog("garbage.txt", "hello\n"))

			res := runner.Run(context.Background(), job)

			Expect(res.Err).To(MatchError(dynamo.ErrMalformedLine))
			Expect(fakes.count()).To(Equal(0))
		})

		It("rejects an empty log", func() {
			job := jobFor(writeLog("empty.txt", "\n\n3\n"))

			res := runner.Run(context.Background(), job)

			Expect(res.Err).To(MatchError(dynamo.ErrEmptyLog))
			Expect(fakes.count()).To(Equal(0))
		})

		It("surfaces encoder write failures", func() {
			fakes.failAt = 2
			job := jobFor(writeLog("scenario.txt", scenarioLog))

			res := runner.Run(context.Background(), job)

			Expect(res.Err).To(MatchError(dynamo.ErrEncoder))
			Expect(res.Frames).To(Equal(1))
			Expect(fakes.get(job.Output).aborted).To(BeTrue())
		})

		It("removes the output when the encoder exits with an error", func() {
			fakes.closeErr = &dynamo.SubprocessError{Op: "exit", ExitCode: 1, Wrapped: errors.New("exit status 1")}
			job := jobFor(writeLog("scenario.txt", scenarioLog))

			res := runner.Run(context.Background(), job)

			Expect(res.Err).To(MatchError(dynamo.ErrEncoder))
			_, err := os.Stat(job.Output)
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("reports a missing input file", func() {
			res := runner.Run(context.Background(), jobFor(filepath.Join(dir, "missing.txt")))

			Expect(res.Err).To(MatchError(os.ErrNotExist))
		})

		It("rejects an invalid render configuration", func() {
			job := jobFor(writeLog("scenario.txt", scenarioLog))
			job.Render.FPS = 0

			Expect(runner.Run(context.Background(), job).Err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("aborts when the context is cancelled", func() {
			job := jobFor(writeLog("scenario.txt", scenarioLog))
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			res := runner.Run(ctx, job)

			Expect(res.Err).To(MatchError(context.Canceled))
			Expect(fakes.get(job.Output).aborted).To(BeTrue())
		})
	})

	Describe("batches", func() {
		It("keeps going after a failing file", func() {
			jobs := []pipeline.Job{
				jobFor(writeLog("one.txt", scenarioLog)),
				jobFor(writeLog("two.txt", "0\n1,x,0,0,1\n")),
				jobFor(writeLog("three.txt", scenarioLog)),
			}

			results, err := runner.RunAll(context.Background(), jobs)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("two.txt"))
			Expect(strings.Count(err.Error(), "\n")).To(Equal(0))
			Expect(results).To(HaveLen(3))
			Expect(results[0].Err).NotTo(HaveOccurred())
			Expect(results[1].Err).To(MatchError(dynamo.ErrMalformedLine))
			Expect(results[2].Err).NotTo(HaveOccurred())
			Expect(fakes.get(jobs[2].Output).closed).To(BeTrue())
			Expect(obs.starts).To(Equal(3))
		})

		It("runs files in parallel and keeps results in input order", func() {
			runner.Jobs = 3
			var jobs []pipeline.Job
			for _, name := range []string{"p1.txt", "p2.txt", "p3.txt", "p4.txt"} {
				jobs = append(jobs, jobFor(writeLog(name, scenarioLog)))
			}

			results, err := runner.RunAll(context.Background(), jobs)

			Expect(err).NotTo(HaveOccurred())
			for i, res := range results {
				Expect(res.Job.Input).To(Equal(jobs[i].Input))
				Expect(res.Frames).To(Equal(3))
			}
			Expect(fakes.count()).To(Equal(4))
		})

		It("skips every file once cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			jobs := []pipeline.Job{jobFor(writeLog("c1.txt", scenarioLog)), jobFor(writeLog("c2.txt", scenarioLog))}

			results, err := runner.RunAll(ctx, jobs)

			Expect(err).To(MatchError(context.Canceled))
			Expect(results[0].Err).To(MatchError(context.Canceled))
			Expect(results[1].Err).To(MatchError(context.Canceled))
			Expect(fakes.count()).To(Equal(0))
		})
	})
})
