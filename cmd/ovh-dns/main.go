package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/jblemee/ovhdns"
)

func main() {
	cmd := &cli.Command{
		Name:  "ovh-dns",
		Usage: "manage DNS records for a zone hosted at OVH",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "path to the KEY=VALUE credentials file"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable verbose logging"},
		},
		Commands: []*cli.Command{
			addCommand(),
			listCommand(),
			deleteCommand(),
			checkCommand(),
			ipCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func domainFlag() *cli.StringFlag {
	return &cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "zone name (default: DOMAIN from the environment)"}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "add or update a record (idempotent)",
		ArgsUsage: "<subdomain>",
		Description: `Reconciles the (subdomain, type) pair to the desired target.
If the record already exists with the same target nothing is changed;
a record with a different target is deleted and recreated.

Without --ip/--target, CNAME records point at the zone apex and A records
take the host's public IP as reported by external echo services.`,
		Flags: []cli.Flag{
			domainFlag(),
			&cli.StringFlag{Name: "ip", Aliases: []string{"target"}, Usage: "target: IP for A records, hostname for CNAME"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "CNAME", Usage: "record type"},
			&cli.IntFlag{Name: "ttl", Value: ovhdns.DefaultTTL, Usage: "TTL in seconds"},
		},
		Action: runAdd,
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "list the zone's records",
		ArgsUsage: "[subdomain]",
		Flags:     []cli.Flag{domainFlag()},
		Action:    runList,
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete every record matching a subdomain and type",
		ArgsUsage: "<subdomain>",
		Flags: []cli.Flag{
			domainFlag(),
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "CNAME", Usage: "record type"},
		},
		Action: runDelete,
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "resolve a subdomain through the local resolver",
		ArgsUsage: "<subdomain>",
		Description: `Checks the resolver path of this machine, not the registrar's
authoritative zone. A freshly committed record can take a while to
show up here.`,
		Flags:  []cli.Flag{domainFlag()},
		Action: runCheck,
	}
}

func ipCommand() *cli.Command {
	return &cli.Command{
		Name:   "ip",
		Usage:  "print the host's public IP address",
		Action: runIP,
	}
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	subdomain := cmd.Args().First()
	if subdomain == "" {
		fmt.Println("Error: subdomain is required for add")
		return cli.Exit("", 1)
	}
	zone, err := newZone(cmd)
	if err != nil {
		fmt.Println(err)
		return cli.Exit("", 1)
	}

	result, err := zone.Set(ctx, ovhdns.SetRequest{
		SubDomain: subdomain,
		FieldType: cmd.String("type"),
		Target:    cmd.String("ip"),
		TTL:       int(cmd.Int("ttl")),
	})
	if err != nil {
		fmt.Printf("Error adding record: %s\n", err)
		return cli.Exit("", 1)
	}

	fqdn := ovhdns.FQDN(subdomain, zone.Domain())
	if !result.Changed() {
		fmt.Printf("Record already exists: %s -> %s\n", fqdn, result.Target)
		return nil
	}
	for _, rec := range result.Deleted {
		fmt.Printf("Deleted record: %s -> %s (ID: %d)\n", rec.FQDN(zone.Domain()), rec.Target, rec.ID)
	}
	if result.Created != nil {
		fmt.Printf("Added %s record: %s -> %s\n", cmd.String("type"), fqdn, result.Target)
	}
	if result.Refreshed {
		fmt.Printf("Zone %s refreshed\n", zone.Domain())
	} else {
		fmt.Printf("Warning: zone %s was not refreshed; changes are staged but not served\n", zone.Domain())
	}
	return nil
}

func runList(ctx context.Context, cmd *cli.Command) error {
	zone, err := newZone(cmd)
	if err != nil {
		fmt.Println(err)
		return cli.Exit("", 1)
	}

	records, err := zone.Records(ctx, ovhdns.RecordFilter{SubDomain: cmd.Args().First()})
	if err != nil {
		fmt.Printf("Error listing records: %s\n", err)
		return cli.Exit("", 1)
	}
	if len(records) == 0 {
		fmt.Printf("No records found for %s\n", zone.Domain())
		return nil
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].SubDomain != records[j].SubDomain {
			return records[i].SubDomain < records[j].SubDomain
		}
		return records[i].FieldType < records[j].FieldType
	})

	fmt.Printf("DNS records for %s:\n", zone.Domain())
	w := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
	for _, rec := range records {
		sub := rec.SubDomain
		if sub == "" {
			sub = "@"
		}
		fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n", sub, rec.FieldType, rec.TTL, rec.Target)
	}
	return w.Flush()
}

func runDelete(ctx context.Context, cmd *cli.Command) error {
	subdomain := cmd.Args().First()
	if subdomain == "" {
		fmt.Println("Error: subdomain is required for delete")
		return cli.Exit("", 1)
	}
	zone, err := newZone(cmd)
	if err != nil {
		fmt.Println(err)
		return cli.Exit("", 1)
	}

	result, err := zone.Remove(ctx, subdomain, cmd.String("type"))
	if err != nil {
		fmt.Printf("Error deleting records: %s\n", err)
		return cli.Exit("", 1)
	}

	fqdn := ovhdns.FQDN(subdomain, zone.Domain())
	if result.Found == 0 {
		fmt.Printf("No %s record found for %s\n", cmd.String("type"), fqdn)
		return nil
	}
	for _, rec := range result.Deleted {
		fmt.Printf("Deleted record: %s (ID: %d)\n", fqdn, rec.ID)
	}
	for _, failed := range result.Failed {
		fmt.Printf("Error deleting record %d: %s\n", failed.Record.ID, failed.Err)
	}
	if result.Refreshed {
		fmt.Printf("Zone %s refreshed\n", zone.Domain())
	}
	if len(result.Deleted) == 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	subdomain := cmd.Args().First()
	if subdomain == "" {
		fmt.Println("Error: subdomain is required for check")
		return cli.Exit("", 1)
	}
	domain, err := zoneDomain(cmd)
	if err != nil {
		fmt.Println(err)
		return cli.Exit("", 1)
	}

	fqdn := ovhdns.FQDN(subdomain, domain)
	addrs, err := ovhdns.Check(ctx, nil, subdomain, domain)
	if err != nil {
		fmt.Printf("DNS resolution failed for %s\n", fqdn)
		return nil
	}
	fmt.Printf("DNS resolution: %s -> %s\n", fqdn, strings.Join(addrs, ", "))
	return nil
}

func runIP(ctx context.Context, cmd *cli.Command) error {
	addr, err := ovhdns.WebResolver().Resolve(ctx)
	if err != nil {
		logger(cmd).Printf("public IP lookup failed: %s", err)
		fmt.Println("Could not determine server IP")
		return nil
	}
	fmt.Printf("Server public IP: %s\n", addr)
	return nil
}

// newZone loads credentials and builds a Zone for the requested domain.
func newZone(cmd *cli.Command) (*ovhdns.Zone, error) {
	creds, err := loadCredentials(cmd)
	if err != nil {
		return nil, err
	}
	domain := cmd.String("domain")
	if domain == "" {
		domain = creds.Domain
	}
	if domain == "" {
		return nil, errors.New("Error: --domain is required (or set DOMAIN in .env)")
	}
	return ovhdns.New(domain,
		ovhdns.UsingOVH(creds),
		ovhdns.WithLogger(logger(cmd)),
	)
}

// zoneDomain resolves the domain for commands that need no credentials.
func zoneDomain(cmd *cli.Command) (string, error) {
	if err := ovhdns.LoadEnvFile(cmd.String("env-file")); err != nil {
		return "", err
	}
	domain := cmd.String("domain")
	if domain == "" {
		domain = os.Getenv("DOMAIN")
	}
	if domain == "" {
		return "", errors.New("Error: --domain is required (or set DOMAIN in .env)")
	}
	return domain, nil
}

// loadCredentials merges the env file into the environment and reads the
// credentials from it. When keys are missing and stdin is a terminal the
// user is prompted for them instead of failing outright.
func loadCredentials(cmd *cli.Command) (ovhdns.Credentials, error) {
	if err := ovhdns.LoadEnvFile(cmd.String("env-file")); err != nil {
		return ovhdns.Credentials{}, err
	}
	creds := ovhdns.CredentialsFromEnv()
	if creds.Complete() {
		return creds, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return creds, fmt.Errorf("Error: OVH API credentials not found in %s or the environment\nRequired: OVH_APPLICATION_KEY, OVH_APPLICATION_SECRET, OVH_CONSUMER_KEY", cmd.String("env-file"))
	}

	var err error
	if creds.AppKey == "" {
		creds.AppKey, err = promptLine("Enter OVH application key: ")
		if err != nil {
			return creds, err
		}
	}
	if creds.AppSecret == "" {
		creds.AppSecret, err = promptSecret("Enter OVH application secret: ")
		if err != nil {
			return creds, err
		}
	}
	if creds.ConsumerKey == "" {
		creds.ConsumerKey, err = promptSecret("Enter OVH consumer key: ")
		if err != nil {
			return creds, err
		}
	}
	if !creds.Complete() {
		return creds, errors.New("Error: OVH API credentials are incomplete")
	}
	return creds, nil
}

func promptLine(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("error reading from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptSecret(label string) (string, error) {
	fmt.Print(label)
	key, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("error reading from stdin: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}

func logger(cmd *cli.Command) *log.Logger {
	if cmd.Bool("verbose") {
		return log.Default()
	}
	return log.New(io.Discard, "", log.LstdFlags)
}
