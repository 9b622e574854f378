package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/dagconfig"
)

// NetworkFlags selects the network whose headers are verified. Mainnet is
// used when none is selected.
type NetworkFlags struct {
	Testnet bool   `long:"testnet" description:"Verify testnet headers"`
	Regtest bool   `long:"regtest" description:"Verify regtest headers"`
	Net     string `long:"net" description:"Name of the network to verify (mainnet, testnet or regtest)"`

	ActiveNetParams *dagconfig.Params
}

// selectedNetworks returns the distinct network names chosen on the command
// line, sorted.
func (networkFlags *NetworkFlags) selectedNetworks() []string {
	selected := map[string]struct{}{}
	if networkFlags.Testnet {
		selected[dagconfig.TestnetParams.Name] = struct{}{}
	}
	if networkFlags.Regtest {
		selected[dagconfig.RegtestParams.Name] = struct{}{}
	}
	if networkFlags.Net != "" {
		selected[strings.ToLower(networkFlags.Net)] = struct{}{}
	}

	names := make([]string, 0, len(selected))
	for name := range selected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveNetwork sets ActiveNetParams from the network flags and validates
// the chosen parameters. Choosing two different networks is an error, and
// the usage is printed through parser when it is not nil.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	names := networkFlags.selectedNetworks()
	switch len(names) {
	case 0:
		networkFlags.ActiveNetParams = &dagconfig.MainnetParams
	case 1:
		params, err := dagconfig.ParamsByName(names[0])
		if err != nil {
			return err
		}
		networkFlags.ActiveNetParams = params
	default:
		err := errors.Errorf("only one network can be selected, got %s", strings.Join(names, " and "))
		fmt.Fprintln(os.Stderr, err)
		if parser != nil {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	return networkFlags.ActiveNetParams.Validate()
}

// NetParams returns the parameters of the selected network.
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}
