// Command mediaseal is the CLI front-end for generating authority keys,
// signing carrier files, and verifying them offline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/digitorus/mediaseal/config"
	"github.com/digitorus/mediaseal/keystore"
	"github.com/digitorus/mediaseal/provenance"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: mediaseal <keygen|sign|verify> ...")
	fmt.Fprintln(os.Stderr, "  mediaseal keygen <authority-name>")
	fmt.Fprintln(os.Stderr, "  mediaseal sign <file> --auth <authority-name> [--msg <text>]")
	fmt.Fprintln(os.Stderr, "  mediaseal verify <file>")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Read("config.toml")
	if err != nil {
		log.Fatalf("reading config: %v", err)
	}

	switch os.Args[1] {
	case "keygen":
		runKeygen(cfg, os.Args[2:])
	case "sign":
		runSign(cfg, os.Args[2:])
	case "verify":
		runVerify(cfg, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func runKeygen(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	name := fs.Arg(0)
	if err := keygen(cfg.Paths.KeysDir, name); err != nil {
		log.Fatalf("keygen: %v", err)
	}
	fmt.Printf("generated key pair for %q in %s\n", name, cfg.Paths.KeysDir)
}

func runSign(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	auth := fs.String("auth", cfg.Authority.DefaultName, "authority name")
	msg := fs.String("msg", "", "message to embed")
	fs.Parse(args)
	if fs.NArg() != 1 || *auth == "" {
		usage()
		os.Exit(1)
	}

	store := keystore.New(cfg.Paths.KeysDir)
	outPath, err := provenance.Sign(store, fs.Arg(0), *auth, *msg)
	if err != nil {
		log.Fatalf("sign: %v", err)
	}
	fmt.Printf("signed -> %s\n", outPath)
}

func runVerify(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	store := keystore.New(cfg.Paths.KeysDir)
	report := provenance.Verify(store, fs.Arg(0))

	fmt.Printf("status: %s\n", report.Status)
	fmt.Printf("message: %s\n", report.Message)
	if report.Metadata != nil {
		fmt.Printf("authority: %s\n", report.Metadata.Authority)
		fmt.Printf("signed message: %s\n", report.Metadata.Message)
		fmt.Printf("timestamp: %s\n", report.Metadata.Timestamp)
	}
	if report.Details != "" {
		fmt.Printf("details: %s\n", report.Details)
	}
	os.Exit(0)
}
