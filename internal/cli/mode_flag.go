package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// modeValue is the --mode flag. The zero value leaves the configured
// default in place.
type modeValue struct{ mode *domain.Mode }

func (v modeValue) String() string { return string(*v.mode) }
func (v modeValue) Type() string   { return "mode" }

func (v modeValue) Set(s string) error {
	switch m := domain.Mode(s); m {
	case domain.ModeQuick, domain.ModeGuided:
		*v.mode = m
		return nil
	}
	return fmt.Errorf("unknown mode %q (want quick or guided)", s)
}

// quickValue is --quick, shorthand for --mode quick.
type quickValue struct{ mode *domain.Mode }

func (v quickValue) String() string { return strconv.FormatBool(*v.mode == domain.ModeQuick) }
func (v quickValue) Type() string   { return "bool" }

func (v quickValue) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*v.mode = domain.ModeQuick
	} else if *v.mode == domain.ModeQuick {
		*v.mode = ""
	}
	return nil
}

// addModeFlags registers --mode and --quick on fs, both writing to mode.
func addModeFlags(fs *pflag.FlagSet, mode *domain.Mode) {
	fs.Var(modeValue{mode}, "mode", "conversation mode for new tasks: quick or guided")
	f := fs.VarPF(quickValue{mode}, "quick", "q", "skip clarifying questions for new tasks")
	f.NoOptDefVal = "true"
	fs.SortFlags = false
}
