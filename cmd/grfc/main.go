package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"unicode"

	"github.com/inoxlang/grfc/internal/compiler"
	"github.com/inoxlang/grfc/internal/config"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/utils"
	"github.com/muesli/termenv"
	"github.com/posener/complete/v2/install"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

const (
	ERROR_STATUS_CODE = 1

	COMMAND_NAME    = "grfc"
	LOG_TIME_FORMAT = "15:04:05"
)

func main() {
	//handle completions
	completer.Complete(COMMAND_NAME)

	statusCode := _main(os.Args, os.Stdout, os.Stderr)
	if statusCode != 0 {
		os.Exit(statusCode)
	}
}

func _main(args []string, outW io.Writer, errW io.Writer) (statusCode int) {
	defer func() {
		if e := recover(); e != nil {
			err := utils.ConvertPanicValueToError(e)
			fmt.Fprintf(errW, "internal compiler error: %s\n%s\n", err, debug.Stack())
			statusCode = ERROR_STATUS_CODE
		}
	}()

	mainSubCommand := ""
	var mainSubCommandArgs []string

	if len(args) == 1 { //no subcommand specified
		mainSubCommand = HELP_SUBCMD
	} else {
		mainSubCommand = args[1]
		mainSubCommandArgs = args[2:]
	}

	//if the command has the shape help <subcommand> ... we modify the arguments to ask the subcommand to print its help message.
	if mainSubCommand == HELP_SUBCMD && len(mainSubCommandArgs) > 0 && mainSubCommandArgs[0] != "" && unicode.IsLetter(rune(mainSubCommandArgs[0][0])) {
		mainSubCommand = mainSubCommandArgs[0]
		mainSubCommandArgs = []string{"-h"}
	}

	if slices.Contains(HELP_SUBCMD_EQUIVALENTS, mainSubCommand) {
		mainSubCommand = HELP_SUBCMD
	}

	//unknown command
	if !slices.Contains(SUBCOMMANDS, mainSubCommand) {
		fmt.Fprintf(errW, "unknown command '%s'\n", mainSubCommand)
		fmt.Fprint(errW, GRFC_CMD_HELP)
		return ERROR_STATUS_CODE
	}

	switch mainSubCommand {
	case HELP_SUBCMD:
		fmt.Fprint(outW, GRFC_CMD_HELP)
		return
	case VERSION_SUBCMD:
		fmt.Fprintln(outW, compiler.VERSION)
		return
	case INSTALL_COMPLETIONS_SUBCMD:
		err := install.Install(COMMAND_NAME)
		if err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintln(outW, "installed")
		return
	case UNINSTALL_COMPLETIONS_SUBCMD:
		err := install.Uninstall(COMMAND_NAME)
		if err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintln(outW, "uninstalled")
		return
	}

	settings, configPath, err := config.Load()
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	logger, err := createLogger(settings, errW)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	if configPath != "" {
		logger.Debug().Str("path", configPath).Msg("configuration file loaded")
	}

	switch mainSubCommand {
	case BUILD_SUBCMD:
		return BuildGRF(mainSubCommand, mainSubCommandArgs, settings, logger, outW, errW)
	case CHECK_SUBCMD:
		return CheckFiles(mainSubCommand, mainSubCommandArgs, settings, logger, outW, errW)
	case WATCH_SUBCMD:
		return Watch(mainSubCommand, mainSubCommandArgs, settings, logger, outW, errW)
	default:
		panic(fmt.Errorf("sub command %s is not handled", mainSubCommand))
	}
}

func createLogger(settings config.Settings, errW io.Writer) (zerolog.Logger, error) {
	level, err := settings.ZerologLevel()
	if err != nil {
		return zerolog.Logger{}, err
	}

	consoleWriter := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = errW
		w.NoColor = !config.SHOULD_COLORIZE
		w.TimeFormat = LOG_TIME_FORMAT
		w.FieldsExclude = []string{compiler.COMPILATION_LOG_FIELD_NAME}
	})

	return zerolog.New(consoleWriter).Level(level).With().Timestamp().Logger(), nil
}

// printError prints a compilation error, the position of compile errors is highlighted.
func printError(errW io.Writer, err error) {
	profile := config.ColorProfile()

	var compileErr *grferr.CompileError
	if errors.As(err, &compileErr) && !compileErr.Pos.IsZero() {
		utils.PrintColored(errW, profile, termenv.ANSIBrightWhite, compileErr.Pos.String()+": ")
		utils.PrintColored(errW, profile, termenv.ANSIRed, compileErr.Kind.Error()+": ")
		fmt.Fprintln(errW, compileErr.Message)
		return
	}

	utils.PrintColored(errW, profile, termenv.ANSIRed, "error: ")
	fmt.Fprintln(errW, err)
}
