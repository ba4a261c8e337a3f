// Command veilctl is the operator CLI: pseudonym derivation, offline
// integrity checks, policy file validation and audit stream tailing.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"veil/internal/audit"
	"veil/internal/audit/kafka"
	"veil/internal/classification"
	"veil/internal/company"
	"veil/internal/platform/logger"
	"veil/internal/pseudonym"
	"veil/internal/sealing"
	"veil/pkg/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "veilctl",
		Short:        "Operator tooling for the veil anonymization gateway",
		SilenceUsage: true,
	}

	deriveCmd := &cobra.Command{
		Use:   "derive-id [external-user-id]",
		Short: "Print the anonymous id a user gets within a company",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeriveID,
	}
	deriveCmd.Flags().String("company", "", "Company id (required)")
	deriveCmd.Flags().String("salt-constant", "", "Salt constant; empty uses the built-in default")
	_ = deriveCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(deriveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "verify [record.json]",
		Short: "Check a record's checksum against its sealed payload without the key",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	})

	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Policy file operations",
	}
	validateCmd := &cobra.Command{
		Use:   "validate [policy.yaml]",
		Short: "Validate categories and companies in a policy file",
		Args:  cobra.ExactArgs(1),
		RunE:  runPolicyValidate,
	}
	validateCmd.Flags().String("compliance-level", string(domain.ProfileBasic), "Deployment compliance level companies must cover")
	policyCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(policyCmd)

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit stream operations",
	}
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Print audit entries from the Kafka stream as JSON lines",
		RunE:  runAuditTail,
	}
	tailCmd.Flags().String("brokers", os.Getenv("KAFKA_BROKERS"), "Comma-separated broker list")
	tailCmd.Flags().String("topic", "veil.audit", "Audit topic")
	tailCmd.Flags().String("group", "", "Consumer group; empty reads from the start without committing")
	tailCmd.Flags().String("action", "", "Only print entries with this action")
	auditCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(auditCmd)

	return rootCmd
}

func runDeriveID(cmd *cobra.Command, args []string) error {
	rawCompany, _ := cmd.Flags().GetString("company")
	salt, _ := cmd.Flags().GetString("salt-constant")

	companyID, err := domain.ParseCompanyID(rawCompany)
	if err != nil {
		return err
	}
	id, err := pseudonym.NewGenerator(salt).Generate(args[0], companyID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// recordFile is the record shape returned by the anonymize endpoint.
type recordFile struct {
	ID               string           `json:"id"`
	EncryptedPayload sealing.Envelope `json:"encrypted_payload"`
	Checksum         string           `json:"checksum"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var rec recordFile
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("parse record: %w", err)
	}
	if rec.Checksum == "" {
		return fmt.Errorf("record has no checksum")
	}
	if !sealing.VerifyChecksum(rec.EncryptedPayload, rec.Checksum) {
		return fmt.Errorf("record %s: integrity check failed", rec.ID)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "record %s: ok\n", rec.ID)
	return nil
}

func runPolicyValidate(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("compliance-level")
	deployment := domain.ComplianceProfile(strings.ToLower(level))
	if !deployment.IsValid() {
		return fmt.Errorf("unknown compliance level %q", level)
	}

	pf, err := company.LoadPolicyFile(args[0])
	if err != nil {
		return err
	}
	policy := classification.DefaultPolicy()
	reg := company.NewRegistry(deployment, company.WithLogger(logger.Discard()))
	if err := pf.Apply(cmd.Context(), reg, policy); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "categories: %s\n", strings.Join(policy.Names(), ", "))
	for _, c := range reg.List(cmd.Context()) {
		fmt.Fprintf(out, "company %s: profile=%s status=%s\n", c.ID, c.ComplianceProfile, c.Status)
	}
	return nil
}

func runAuditTail(cmd *cobra.Command, _ []string) error {
	brokers, _ := cmd.Flags().GetString("brokers")
	topic, _ := cmd.Flags().GetString("topic")
	group, _ := cmd.Flags().GetString("group")
	action, _ := cmd.Flags().GetString("action")

	var list []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	consumer, err := kafka.NewConsumer(list, topic, group, kafka.WithLogger(logger.New(slog.LevelInfo)))
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(cmd.OutOrStdout())
	return consumer.Run(ctx, kafka.HandlerFunc(func(_ context.Context, e audit.Entry) error {
		if action != "" && e.Action.String() != action {
			return nil
		}
		return enc.Encode(e)
	}))
}
