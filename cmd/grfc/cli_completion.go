package main

import (
	"os"
	"strconv"

	"github.com/inoxlang/grfc/internal/config"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

var (
	predictDeclarationFiles = predict.Or(predict.Files("*.yaml"), predict.Files("*.yml"), predict.Files("*.json"))
	predictFormats          = predict.Set{config.GRF_OUTPUT_FORMAT, config.NFO_OUTPUT_FORMAT}

	completer = CreateCompleter(func(c *Completer) *complete.Command {
		buildFlags := func() map[string]complete.Predictor {
			return map[string]complete.Predictor{
				"o":               predict.Files("*"),
				"format":          predictFormats,
				"lang":            predict.Dirs("*"),
				"max-inline-skip": predict.Nothing,
				"stats":           complete.PredictFunc(c.predictFileAfterSwitch),
				"no-cache":        complete.PredictFunc(c.predictFileAfterSwitch),
			}
		}

		return &complete.Command{
			Sub: map[string]*complete.Command{
				BUILD_SUBCMD: {
					Flags: buildFlags(),
					Args:  predictDeclarationFiles,
				},
				WATCH_SUBCMD: {
					Flags: buildFlags(),
					Args:  predictDeclarationFiles,
				},
				CHECK_SUBCMD: {
					Flags: map[string]complete.Predictor{
						"lang":            predict.Dirs("*"),
						"max-inline-skip": predict.Nothing,
					},
					Args: predictDeclarationFiles,
				},
				VERSION_SUBCMD:               {},
				HELP_SUBCMD:                  {},
				INSTALL_COMPLETIONS_SUBCMD:   {},
				UNINSTALL_COMPLETIONS_SUBCMD: {},
			},
		}
	})
)

type Completer struct {
	*complete.Command
	currentCompLine  string
	currentCompPoint int //-1 if not retrieved
}

func CreateCompleter(create func(c *Completer) *complete.Command) *Completer {
	c := &Completer{}
	c.Command = create(c)
	return c
}

func (c *Completer) Complete(name string) {
	c.currentCompLine = os.Getenv("COMP_LINE")
	c.currentCompPoint, _ = strconv.Atoi(os.Getenv("COMP_POINT")) //ignore error because .Complete will also check the value

	if c.currentCompPoint > len(c.currentCompLine) {
		c.currentCompPoint = len(c.currentCompLine)
	}

	c.Command.Complete(name)
}

func (c *Completer) beforeCursorPoint() string {
	if c.currentCompPoint < 0 {
		return c.currentCompLine
	}
	return c.currentCompLine[:c.currentCompPoint]
}

func (c *Completer) predictFileAfterSwitch(prefix string) (results []string) {
	s := c.beforeCursorPoint()
	if s == "" {
		return
	}

	switch s[len(s)-1] {
	case '=':
		//The flag is a switch, it does not accept any value.
		return
	default:
		return predictDeclarationFiles.Predict(prefix)
	}
}
