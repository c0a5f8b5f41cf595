package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ardnew/hidpoll/hid"
)

var keysCmd = &cobra.Command{
	Use:   "keys [code or character]...",
	Short: "Show the Boot-Protocol keycode tables",
	Long: `Keys prints the code, name, and printable characters of each key
the decoder knows, or of the arguments given. An argument one
character long is looked up as a literal character; anything longer
parses as a hex keycode such as 0x04.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			printModifiers()
			fmt.Println()
			printAllKeys()
			return nil
		}
		for _, arg := range args {
			if err := printKeyArg(arg); err != nil {
				return err
			}
		}
		return nil
	},
}

func printModifiers() {
	fmt.Println("modifier bits:")
	for bit := 0; bit < 8; bit++ {
		mask := uint8(1) << bit
		fmt.Printf("  0x%02X  %s\n", mask, hid.ModifierNames(mask)[0])
	}
}

func printAllKeys() {
	fmt.Println("keycodes:")
	for code := 1; code < 256; code++ {
		// Skip codes without a display name.
		name := hid.KeyName(uint8(code))
		if name == "" || strings.HasPrefix(name, "0x") {
			continue
		}
		printKey(uint8(code))
	}
}

// printKey writes one keycode table row: code, name, and the printable
// characters when the key has them.
func printKey(code uint8) {
	row := fmt.Sprintf("  0x%02X  %-12s", code, hid.KeyName(code))
	if lo, ok := hid.KeyChar(code, false); ok {
		row += fmt.Sprintf("  %q", lo)
		if hi, ok := hid.KeyChar(code, true); ok && hi != lo {
			row += fmt.Sprintf("  %q", hi)
		}
	}
	fmt.Println(row)
}

// printKeyArg resolves one lookup argument.
func printKeyArg(arg string) error {
	if len(arg) == 1 {
		code, shifted, ok := hid.CharKey(arg[0])
		if !ok {
			return fmt.Errorf("no keycode for character %q", arg[0])
		}
		if shifted {
			fmt.Printf("%q  0x%02X  %s  (shifted)\n", arg[0], code, hid.KeyName(code))
		} else {
			fmt.Printf("%q  0x%02X  %s\n", arg[0], code, hid.KeyName(code))
		}
		return nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(arg), "0x"), 16, 8)
	if err != nil {
		return fmt.Errorf("invalid keycode %q", arg)
	}
	printKey(uint8(v))
	return nil
}
