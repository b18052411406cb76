// Command qnfit fits a generalized linear model to a CSV file with the
// quasi-Newton solver and prints the fitted weights.
//
//	qnfit -data iris.csv -target species -loss softmax -l2 0.01 -plot loss.png
//
// Every column of the file must be numeric. The target column holds 0/1
// labels for logistic loss, class indices for softmax and real values for
// squared error.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/qnglm/glm"
	"github.com/ezoic/qnglm/glm/qn"
	"github.com/ezoic/qnglm/linear"
	"github.com/ezoic/qnglm/pkg/errors"
	"github.com/ezoic/qnglm/pkg/log"
	"github.com/ezoic/qnglm/preprocessing"
)

type options struct {
	data              string
	target            string
	loss              string
	l1                float64
	l2                float64
	tol               float64
	maxIter           int
	linesearchMaxIter int
	memory            int
	intercept         bool
	verbose           int
	logLevel          string
	plot              string
	progress          bool
	standardize       bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	d := glm.DefaultQNParams()
	o := &options{}
	fs := flag.NewFlagSet("qnfit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.data, "data", "", "CSV file with a header row (required)")
	fs.StringVar(&o.target, "target", "y", "name of the target column")
	fs.StringVar(&o.loss, "loss", "squared", "loss: logistic, squared or softmax")
	fs.Float64Var(&o.l1, "l1", d.L1, "L1 penalty")
	fs.Float64Var(&o.l2, "l2", d.L2, "L2 penalty")
	fs.Float64Var(&o.tol, "tol", d.GradTol, "relative gradient tolerance")
	fs.IntVar(&o.maxIter, "max-iter", d.MaxIter, "maximum solver iterations (0 for no limit)")
	fs.IntVar(&o.linesearchMaxIter, "linesearch-max-iter", d.LinesearchMaxIter, "maximum trials per line search")
	fs.IntVar(&o.memory, "memory", d.LBFGSMemory, "number of L-BFGS correction pairs")
	fs.BoolVar(&o.intercept, "intercept", d.FitIntercept, "fit an intercept per class")
	fs.IntVar(&o.verbose, "verbose", 0, "log every solver iteration when > 0")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fs.StringVar(&o.plot, "plot", "", "write a convergence plot to this file (.png, .svg, .pdf)")
	fs.BoolVar(&o.progress, "progress", false, "show a progress bar")
	fs.BoolVar(&o.standardize, "standardize", false, "standardize features before fitting; weights are reported in raw units")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.data == "" {
		return nil, errors.NewValueError("qnfit", "-data is required")
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	level := o.logLevel
	if o.verbose > 0 {
		level = "info"
	}
	log.SetupLogger(level)

	loss, err := glm.ParseLossType(o.loss)
	if err != nil {
		return err
	}
	ds, err := loadCSVFile(o.data, o.target)
	if err != nil {
		return err
	}
	n, d := ds.X.Dims()

	X := mat.Matrix(ds.X)
	var scaler *preprocessing.StandardScaler
	if o.standardize {
		scaler = preprocessing.NewStandardScaler(true, true)
		if X, err = scaler.FitTransform(ds.X); err != nil {
			return err
		}
	}

	opts := []linear.QNOption{
		linear.WithLoss(loss),
		linear.WithL1(o.l1),
		linear.WithL2(o.l2),
		linear.WithTol(o.tol),
		linear.WithMaxIter(o.maxIter),
		linear.WithLinesearchMaxIter(o.linesearchMaxIter),
		linear.WithLBFGSMemory(o.memory),
		linear.WithFitIntercept(o.intercept),
		linear.WithVerbosity(o.verbose),
	}

	var bar *progressbar.ProgressBar
	if o.progress {
		// -1 makes the bar a spinner when there is no iteration cap.
		total := o.maxIter
		if total == 0 {
			total = -1
		}
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Fitting"),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("iters"),
			progressbar.OptionSetTheme(progressbar.ThemeUnicode),
			progressbar.OptionClearOnFinish(),
		)
		opts = append(opts, linear.WithProgress(func(it qn.Iteration) {
			bar.Describe(fmt.Sprintf("f=%.6g |g|=%.3g", it.F, it.GradNorm))
			_ = bar.Add(1)
		}))
	}
	model := linear.NewQN(opts...)

	err = model.Fit(X, ds.y)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	score, err := model.Score(X, ds.y)
	if err != nil {
		return err
	}
	coef, intercept := mat.Matrix(model.Coef()), model.Intercept()
	if scaler != nil {
		if coef, intercept, err = scaler.UnscaleCoef(coef, intercept); err != nil {
			return err
		}
	}
	report(stdout, model, ds, n, d, score, coef, intercept)

	if o.plot != "" {
		title := fmt.Sprintf("%s loss, l1=%g, l2=%g", loss, o.l1, o.l2)
		if err := saveConvergencePlot(model.History(), title, o.plot); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "plot:        %s\n", o.plot)
	}
	return nil
}

func report(w io.Writer, model *linear.QN, ds *dataset, n, d int, score float64, coef mat.Matrix, intercept []float64) {
	fmt.Fprintf(w, "samples:     %d\n", n)
	fmt.Fprintf(w, "features:    %d\n", d)
	fmt.Fprintf(w, "loss:        %s\n", model.Loss)
	fmt.Fprintf(w, "status:      %s\n", model.Status())
	fmt.Fprintf(w, "iterations:  %d\n", model.NIter())
	fmt.Fprintf(w, "objective:   %.10g\n", model.Objective())
	if model.Loss == glm.LossSquared {
		fmt.Fprintf(w, "r2:          %.6f\n", score)
	} else {
		fmt.Fprintf(w, "accuracy:    %.6f\n", score)
	}

	for c := 0; c < model.NClassesFitted(); c++ {
		parts := make([]string, d)
		for j := 0; j < d; j++ {
			parts[j] = fmt.Sprintf("%s=%.6g", ds.features[j], coef.At(c, j))
		}
		label := "coef"
		if model.NClassesFitted() > 1 {
			label = fmt.Sprintf("class %d", c)
		}
		fmt.Fprintf(w, "%-12s %s intercept=%.6g\n", label+":", strings.Join(parts, " "), intercept[c])
	}
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.LogError(err, "qnfit failed")
		os.Exit(1)
	}
}
