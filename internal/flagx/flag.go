package flagx

import (
	"flag"
	"io"
	"os"
	"strconv"
	"strings"
)

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//
// Parameters:
//
//	args         — the command-line arguments (usually os.Args[1:])
//	allowedFlags — list of allowed flag names (e.g. []string{"-c", "--config"})
//
// Returns:
//
//	A slice containing the allowed flags and their values (if provided separately).
func FilterArgs(args []string, allowedFlags []string) []string {
	return FilterArgsBool(args, allowedFlags, nil)
}

// FilterArgsBool is FilterArgs for a flag set that includes boolean flags.
//
// A boolean flag never takes the next argument as a value unless that
// argument is a boolean literal accepted by strconv.ParseBool, in which case
// the pair is joined as "flag=value". The standard flag package would
// otherwise read "-q false" as "-q" followed by a positional argument and stop
// parsing at it, silently dropping every flag after it.
func FilterArgsBool(args []string, allowedFlags []string, boolFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}
	bools := make(map[string]struct{}, len(boolFlags))
	for _, f := range boolFlags {
		bools[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// Case 1: flag in the form "--flag=value" or "-f=value"
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			// Extract the flag name (before the '=')
			name := strings.SplitN(arg, "=", 2)[0]
			// If this flag is allowed, keep the whole "flag=value" argument
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}

		// Case 2: boolean flag, optionally followed by a literal value
		if _, ok := bools[arg]; ok {
			if i+1 < len(args) {
				if _, err := strconv.ParseBool(args[i+1]); err == nil {
					filtered = append(filtered, arg+"="+args[i+1])
					i++
					continue
				}
			}
			filtered = append(filtered, arg)
			continue
		}

		// Case 3: flag as a separate argument (value might follow)
		filtered = append(filtered, arg)
		// If the next argument exists and does not look like another flag,
		// treat it as this flag's value and include it
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++ // skip the value in the next loop iteration
		}
	}

	return filtered
}

// ConfigFile extracts the config file path passed via -c or -config from
// os.Args. See ConfigFileFrom.
func ConfigFile() string {
	return ConfigFileFrom(os.Args[1:])
}

// ConfigFileFrom extracts the config file path passed via -c or -config from
// args. Only these flags are parsed; other arguments are ignored, so each
// component can parse its own flags without interfering with the others.
//
// If neither flag is present, an empty string is returned. When both are
// given, the last one wins.
func ConfigFileFrom(args []string) string {
	var config string

	args = FilterArgs(args, []string{"-c", "-config", "--config"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
