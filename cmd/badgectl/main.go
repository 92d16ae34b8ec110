// Package main provides badgectl, a CLI for inspecting TokenBadge accounts:
//
//	badgectl derive -config <pubkey> -mint <pubkey>
//	badgectl show   -config <pubkey> -mint <pubkey>
//	badgectl show   -address <pubkey>
//	badgectl list   -config <pubkey>
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mr-tron/base58"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/pda"
	"token-badge-registry/internal/solana"
	"token-badge-registry/internal/state"
)

// DefaultProgramID is the mainnet AMM program whose badge accounts are inspected.
const DefaultProgramID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"

const defaultRPCEndpoint = "https://api.mainnet-beta.solana.com"

func main() {
	logger := log.New(os.Stderr, "[badgectl] ", 0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "derive":
		err = runDerive(os.Args[2:])
	case "show":
		err = runShow(logger, os.Args[2:])
	case "list":
		err = runList(logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: badgectl <derive|show|list> [flags]")
	fmt.Fprintln(os.Stderr, "  derive -config <pubkey> -mint <pubkey>      print the badge PDA and bump")
	fmt.Fprintln(os.Stderr, "  show   -config <pubkey> -mint <pubkey>      fetch and decode the badge account")
	fmt.Fprintln(os.Stderr, "  show   -address <pubkey>                    fetch and decode by address")
	fmt.Fprintln(os.Stderr, "  list   -config <pubkey>                     list all badges under a config scope")
}

// runDerive prints the PDA for a (config, mint) pair. Works offline.
func runDerive(args []string) error {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	programFlag := fs.String("program", envOr("BADGE_PROGRAM_ID", DefaultProgramID), "AMM program ID")
	configFlag := fs.String("config", "", "Config scope account (base58)")
	mintFlag := fs.String("mint", "", "Token mint account (base58)")
	fs.Parse(args)

	programID, config, mint, err := parseIdentity(*programFlag, *configFlag, *mintFlag)
	if err != nil {
		return err
	}

	address, bump, err := pda.DeriveTokenBadgeAddress(programID, config, mint)
	if err != nil {
		return fmt.Errorf("derive badge address: %w", err)
	}

	fmt.Printf("address: %s\n", address)
	fmt.Printf("bump:    %d\n", bump)
	return nil
}

// runShow fetches one badge account and prints its decoded fields.
func runShow(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	rpcEndpoint := fs.String("rpc-endpoint", envOr("SOLANA_RPC_ENDPOINT", defaultRPCEndpoint), "Solana RPC HTTP endpoint")
	programFlag := fs.String("program", envOr("BADGE_PROGRAM_ID", DefaultProgramID), "AMM program ID")
	configFlag := fs.String("config", "", "Config scope account (base58)")
	mintFlag := fs.String("mint", "", "Token mint account (base58)")
	addressFlag := fs.String("address", "", "Badge account address (base58), instead of -config/-mint")
	fs.Parse(args)

	var address string
	if *addressFlag != "" {
		pk, err := domain.PubkeyFromBase58(*addressFlag)
		if err != nil {
			return fmt.Errorf("invalid -address: %w", err)
		}
		address = pk.String()
	} else {
		programID, config, mint, err := parseIdentity(*programFlag, *configFlag, *mintFlag)
		if err != nil {
			return err
		}
		derived, bump, err := pda.DeriveTokenBadgeAddress(programID, config, mint)
		if err != nil {
			return fmt.Errorf("derive badge address: %w", err)
		}
		address = derived.String()
		logger.Printf("derived %s (bump %d)", address, bump)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	info, err := rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return fmt.Errorf("fetch account %s: %w", address, err)
	}
	if info == nil {
		return fmt.Errorf("account %s does not exist", address)
	}

	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return fmt.Errorf("decode account data: %w", err)
	}

	badge, err := state.DecodeTokenBadge(data)
	if err != nil {
		return fmt.Errorf("decode badge account %s: %w", address, err)
	}

	fmt.Printf("address:  %s\n", address)
	fmt.Printf("owner:    %s\n", info.Owner)
	fmt.Printf("lamports: %d\n", info.Lamports)
	fmt.Printf("config:   %s\n", badge.Config)
	fmt.Printf("mint:     %s\n", badge.TokenMint)
	return nil
}

// runList enumerates badge accounts under a config scope via getProgramAccounts,
// using a memcmp filter on the config field right after the record header.
func runList(logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	rpcEndpoint := fs.String("rpc-endpoint", envOr("SOLANA_RPC_ENDPOINT", defaultRPCEndpoint), "Solana RPC HTTP endpoint")
	programFlag := fs.String("program", envOr("BADGE_PROGRAM_ID", DefaultProgramID), "AMM program ID")
	configFlag := fs.String("config", "", "Config scope account (base58)")
	fs.Parse(args)

	programID, err := domain.PubkeyFromBase58(*programFlag)
	if err != nil {
		return fmt.Errorf("invalid -program: %w", err)
	}
	if *configFlag == "" {
		return fmt.Errorf("-config is required")
	}
	config, err := domain.PubkeyFromBase58(*configFlag)
	if err != nil {
		return fmt.Errorf("invalid -config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	accounts, err := rpc.GetProgramAccounts(ctx, programID.String(), &solana.ProgramAccountsOpts{
		DataSize: state.TokenBadgeLen,
		Memcmp: []solana.MemcmpFilter{
			{Offset: 0, Bytes: base58.Encode(state.TokenBadgeDiscriminator())},
			{Offset: state.TokenBadgeHeaderLen, Bytes: config.String()},
		},
	})
	if err != nil {
		return fmt.Errorf("enumerate badge accounts: %w", err)
	}

	count := 0
	for _, account := range accounts {
		data, err := base64.StdEncoding.DecodeString(account.Account.Data)
		if err != nil {
			logger.Printf("skipping %s: bad base64: %v", account.Pubkey, err)
			continue
		}
		badge, err := state.DecodeTokenBadge(data)
		if err != nil {
			logger.Printf("skipping %s: %v", account.Pubkey, err)
			continue
		}
		fmt.Printf("%s  mint=%s\n", account.Pubkey, badge.TokenMint)
		count++
	}

	fmt.Printf("%d badge(s) under config %s\n", count, config)
	return nil
}

// parseIdentity parses the three base58 flags common to derive and show.
func parseIdentity(program, config, mint string) (programID, configPK, mintPK domain.Pubkey, err error) {
	programID, err = domain.PubkeyFromBase58(program)
	if err != nil {
		return programID, configPK, mintPK, fmt.Errorf("invalid -program: %w", err)
	}
	if config == "" || mint == "" {
		return programID, configPK, mintPK, fmt.Errorf("-config and -mint are required")
	}
	configPK, err = domain.PubkeyFromBase58(config)
	if err != nil {
		return programID, configPK, mintPK, fmt.Errorf("invalid -config: %w", err)
	}
	mintPK, err = domain.PubkeyFromBase58(mint)
	if err != nil {
		return programID, configPK, mintPK, fmt.Errorf("invalid -mint: %w", err)
	}
	return programID, configPK, mintPK, nil
}

// envOr returns the env var value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
