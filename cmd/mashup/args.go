package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// shieldArtistArgs keeps a four-argument mashup run whose artist shares a
// subcommand's name (mashup status 20 30 out.mp3) from dispatching to that
// subcommand. The positionals are moved behind "--" so cobra hands them to
// the root command. Any other argument list is returned unchanged.
func shieldArtistArgs(root *cobra.Command, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return args
		case strings.HasPrefix(arg, "-"):
			flags = append(flags, arg)
			if takesValue(root, arg) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			positional = append(positional, arg)
		}
	}
	if len(positional) != 4 || !isSubcommand(root, positional[0]) {
		return args
	}
	if _, err := strconv.Atoi(positional[1]); err != nil {
		return args
	}
	if _, err := strconv.Atoi(positional[2]); err != nil {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, flags...)
	out = append(out, "--")
	return append(out, positional...)
}

// takesValue reports whether a root persistent flag written without "="
// consumes the next argument.
func takesValue(root *cobra.Command, arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	var flag interface{ Type() string }
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		if f := root.PersistentFlags().Lookup(name); f != nil {
			flag = f.Value
		}
	} else if len(arg) == 2 {
		if f := root.PersistentFlags().ShorthandLookup(arg[1:]); f != nil {
			flag = f.Value
		}
	}
	return flag != nil && flag.Type() != "bool"
}

func isSubcommand(root *cobra.Command, name string) bool {
	for _, sub := range root.Commands() {
		if sub.Name() == name || sub.HasAlias(name) {
			return true
		}
	}
	return false
}
