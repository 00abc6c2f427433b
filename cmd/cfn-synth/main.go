// Command cfn-synth synthesizes declarative stack files into CloudFormation
// templates and inspects resource types and deployed resources.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/theory-cloud/cfntheory"
	_ "github.com/theory-cloud/cfntheory/cfn/appregistry"
	_ "github.com/theory-cloud/cfntheory/cfn/finspace"
	_ "github.com/theory-cloud/cfntheory/cfn/mediastore"
	_ "github.com/theory-cloud/cfntheory/cfn/ram"
	"github.com/theory-cloud/cfntheory/pkg/cloudcontrol"
	"github.com/theory-cloud/cfntheory/pkg/logger"
	"github.com/theory-cloud/cfntheory/pkg/observability"
	"github.com/theory-cloud/cfntheory/pkg/observability/zap"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/pkg/template"
)

// newClient is swapped out by tests.
var newClient = cloudcontrol.NewClient

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cfn-synth: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel, specFile string

	root := &cobra.Command{
		Use:           "cfn-synth",
		Short:         "Synthesize CloudFormation templates from typed resource declarations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if logLevel == "" {
				return nil
			}
			log, err := zap.NewZapLogger(observability.LoggerConfig{Level: logLevel}, zap.WithOutput(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			logger.SetLogger(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			_ = logger.Logger().Flush(context.Background())
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", os.Getenv("LOG_LEVEL"), "log level (debug, info, warn, error)")
	flags.StringVar(&specFile, "spec", os.Getenv("CFNTHEORY_SPEC_FILE"), "CloudFormation resource specification to load in addition to the built-in types")

	root.AddCommand(newSynthCmd(&specFile), newTypesCmd(&specFile), newDescribeCmd(&specFile))
	return root
}

// buildRegistry returns the built-in bindings merged with the types declared
// in specFile, if any.
func buildRegistry(specFile string) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	reg.Merge(schema.Default)
	if specFile == "" {
		return reg, nil
	}

	f, err := os.Open(specFile) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", specFile, err)
	}
	defer f.Close()
	spec, err := schema.LoadSpecification(f)
	if err != nil {
		return nil, err
	}
	reg.Merge(spec)
	return reg, nil
}

func newSynthCmd(specFile *string) *cobra.Command {
	var file, outDir, format string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize a stack file into an assembly directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cfntheory.LoadConfig()
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.OutDir = outDir
			}
			if format != "" {
				f, err := template.ParseFormat(format)
				if err != nil {
					return err
				}
				cfg.Format = f
			}

			reg, err := buildRegistry(*specFile)
			if err != nil {
				return err
			}
			spec, err := readAppFile(file)
			if err != nil {
				return err
			}

			app := cfntheory.NewApp(cfntheory.WithConfig(cfg), cfntheory.WithRegistry(reg))
			if err := spec.build(app); err != nil {
				return err
			}
			asm, err := app.Synth()
			if err != nil {
				return err
			}
			return printAssembly(cmd.OutOrStdout(), asm)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&file, "file", "f", "app.yaml", "declarative stack file")
	flags.StringVarP(&outDir, "output", "o", "", "assembly directory (default from config, cdk.out)")
	flags.StringVar(&format, "format", "", "template format: json or yaml")
	return cmd
}

func printAssembly(w io.Writer, asm *cfntheory.Assembly) error {
	if _, err := fmt.Fprintf(w, "run %s: %d stack(s) in %s\n", asm.RunID, len(asm.Stacks), asm.Directory); err != nil {
		return err
	}
	for _, s := range asm.Stacks {
		if _, err := fmt.Fprintf(w, "  %s\t%s\t%d resource(s)\n", s.StackName, s.TemplateFile, s.Template.Resources.Len()); err != nil {
			return err
		}
	}
	return nil
}

func newTypesCmd(specFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "types [TYPE]",
		Short: "List the registered resource types, or the fields of one type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry(*specFile)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if len(args) == 1 {
				rt, ok := reg.Lookup(args[0])
				if !ok {
					return fmt.Errorf("unknown resource type %s", args[0])
				}
				fmt.Fprintln(tw, "FIELD\tACCESSOR\tTYPE\tREQUIRED")
				for _, p := range rt.Properties {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", p.Name, p.Accessor(), p.Type, p.Required)
				}
				return tw.Flush()
			}
			fmt.Fprintln(tw, "TYPE\tTAGS\tREQUIRED\tATTRIBUTES")
			for _, rt := range reg.Types() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rt.Name, rt.TagStyle, orDash(rt.Required()), orDash(rt.Attributes))
			}
			return tw.Flush()
		},
	}
}

func orDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}

func newDescribeCmd(specFile *string) *cobra.Command {
	var typeName, identifier, attribute, region, profile, endpoint string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Read a deployed resource through the Cloud Control API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []cloudcontrol.Option
			if region != "" {
				opts = append(opts, cloudcontrol.WithRegion(region))
			}
			if profile != "" {
				opts = append(opts, cloudcontrol.WithProfile(profile))
			}
			if endpoint != "" {
				opts = append(opts, cloudcontrol.WithEndpoint(endpoint))
			}
			reg, err := buildRegistry(*specFile)
			if err != nil {
				return err
			}
			rt, ok := reg.Lookup(typeName)
			if !ok {
				return fmt.Errorf("unknown resource type %s", typeName)
			}
			if attribute != "" && !rt.HasAttribute(attribute) {
				return fmt.Errorf("%w: %s has no attribute %s", cloudcontrol.ErrUnknownAttribute, rt.Name, attribute)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			client, err := newClient(ctx, opts...)
			if err != nil {
				return err
			}

			if attribute == "" {
				res, err := client.GetResource(ctx, typeName, identifier)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Properties)
				return err
			}

			v, err := client.GetAttribute(ctx, rt, identifier, attribute)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&typeName, "type", "t", "", "resource type name, e.g. AWS::MediaStore::Container")
	flags.StringVarP(&identifier, "identifier", "i", "", "primary identifier of the deployed resource")
	flags.StringVarP(&attribute, "attribute", "a", "", "print a single attribute instead of the full model")
	flags.StringVar(&region, "region", "", "AWS region")
	flags.StringVar(&profile, "profile", "", "AWS shared config profile")
	flags.StringVar(&endpoint, "endpoint", "", "Cloud Control endpoint override")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("identifier")
	return cmd
}
