package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		usage(args, stderr)
		return 1
	}

	switch args[1] {
	case "report":
		return runReport(args[2:], stdout, stderr)
	case "risk":
		return runRisk(args[2:], stdout, stderr)
	case "ppsr":
		if len(args) >= 3 {
			switch args[2] {
			case "check":
				return runPPSRCheck(args[3:], stdout, stderr)
			case "verify-password":
				return runPPSRVerifyPassword(args[3:], stdout, stderr)
			}
		}
	}

	usage(args, stderr)
	return 1
}

func usage(args []string, w io.Writer) {
	name := "cvctl"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(w, "usage:\n")
	fmt.Fprintf(w, "  %s report (--vin <vin>|--rego <rego> --state <state>) [--type BASIC|STANDARD|PREMIUM] [--user-id <id>] [--order-id <id>] [--out <file>]\n", name)
	fmt.Fprintf(w, "  %s risk --in <report.json>\n", name)
	fmt.Fprintf(w, "  %s ppsr check\n", name)
	fmt.Fprintf(w, "  %s ppsr verify-password --password-file <file>\n", name)
}
