package main

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors narrows completion of flags whose values are known.
var flagPredictors = map[string]complete.Predictor{
	"config":  predict.Files("*.yaml"),
	"o":       predict.Files("*.png"),
	"tf":      predict.Set{"1d", "1w"},
	"dir":     predict.Set{"asc", "desc"},
	"market":  predict.Set{"SH", "SZ"},
	"json":    predict.Nothing,
	"plain":   predict.Nothing,
	"v":       predict.Nothing,
	"offline": predict.Nothing,
	"topics":  predict.Set{"session", "markets", "series", "chart"},
}

func predictorFor(name string) complete.Predictor {
	if p, ok := flagPredictors[name]; ok {
		return p
	}
	return predict.Something
}

// completion derives the completion tree from the registered commands and
// the top-level flags. Run "COMP_INSTALL=1 dashctl" to install it.
func completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{},
	}

	c.VisitAll(func(f *flag.Flag) {
		root.Flags[f.Name] = predictorFor(f.Name)
	})

	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)

		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		fs.VisitAll(func(f *flag.Flag) {
			sub.Flags[f.Name] = predictorFor(f.Name)
		})
		root.Sub[cmd.Name()] = sub
	})

	return root
}
