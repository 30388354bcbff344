package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-vitalpress/pkg/calculators"
)

func newCalcCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run the health calculators from the terminal",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	var bmi struct{ system, weight, height string }
	bmiCmd := &cobra.Command{
		Use:   "bmi",
		Short: "Body mass index",
		Example: `  vitalpress calc bmi --weight 70 --height 175
  vitalpress calc bmi --system imperial --weight 154 --height 69`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := calculators.ParseBMI(url.Values{
				"system": {bmi.system}, "weight": {bmi.weight}, "height": {bmi.height},
			})
			if err != nil {
				return calcError(err)
			}
			result, err := calculators.BMI(in)
			if err != nil {
				return calcError(err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "BMI %.1f (%s)\n", result.Value, result.Label)
			return nil
		},
	}
	bmiCmd.Flags().StringVar(&bmi.system, "system", "metric", "metric (kg, cm) or imperial (lb, in)")
	bmiCmd.Flags().StringVar(&bmi.weight, "weight", "", "Body weight")
	bmiCmd.Flags().StringVar(&bmi.height, "height", "", "Height")

	var cal struct{ sex, age, weight, height, activity, goal string }
	caloriesCmd := &cobra.Command{
		Use:     "calories",
		Short:   "Daily calorie needs (Mifflin-St Jeor)",
		Example: `  vitalpress calc calories --sex female --age 30 --weight 60 --height 165 --activity moderate --goal lose`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := calculators.ParseCalories(url.Values{
				"sex": {cal.sex}, "age": {cal.age}, "weight": {cal.weight},
				"height": {cal.height}, "activity": {cal.activity}, "goal": {cal.goal},
			})
			if err != nil {
				return calcError(err)
			}
			result, err := calculators.Calories(in)
			if err != nil {
				return calcError(err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Basal metabolic rate  %d kcal\n", result.BMR)
			fmt.Fprintf(out, "Maintenance           %d kcal\n", result.Maintenance)
			fmt.Fprintf(out, "Daily target          %d kcal\n", result.Target)
			if result.Floored {
				fmt.Fprintln(out, "The target was raised to the recommended minimum intake.")
			}
			return nil
		},
	}
	flags := caloriesCmd.Flags()
	flags.StringVar(&cal.sex, "sex", "", "female or male")
	flags.StringVar(&cal.age, "age", "", "Age in years")
	flags.StringVar(&cal.weight, "weight", "", "Weight in kg")
	flags.StringVar(&cal.height, "height", "", "Height in cm")
	flags.StringVar(&cal.activity, "activity", "moderate", "sedentary, light, moderate, active or very-active")
	flags.StringVar(&cal.goal, "goal", "maintain", "lose, maintain or gain")

	cmd.AddCommand(bmiCmd, caloriesCmd)
	return cmd
}

// calcError turns field errors into flag oriented messages.
func calcError(err error) error {
	fields := calculators.FieldErrors(err)
	if len(fields) == 0 {
		return err
	}
	var parts []string
	for name, messages := range fields {
		parts = append(parts, "--"+name+": "+strings.Join(messages, ", "))
	}
	sort.Strings(parts)
	return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
