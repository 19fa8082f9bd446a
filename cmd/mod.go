// Package cmd holds the commands of the smc binary: the relay, a party talking
// to a relay, and a single-process simulation.
package cmd

import (
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"go.dedis.ch/smc/field"
)

// -----------------------------------------------------------------------------
// Secret Prompt

// AskFunc asks the value of a secret.
type AskFunc func(name string) (int64, error)

// AskSurvey asks the value of a secret on the terminal.
func AskSurvey(name string) (int64, error) {
	var answer string

	prompt := &survey.Password{
		Message: fmt.Sprintf("🔑 Value of %s:", name),
	}

	err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required),
		survey.WithValidator(isInteger))
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(answer, 10, 64)
}

func isInteger(ans interface{}) error {
	str, ok := ans.(string)
	if !ok {
		return fmt.Errorf("unexpected answer type %T", ans)
	}

	_, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return fmt.Errorf("%q is not an integer", str)
	}

	return nil
}

// -----------------------------------------------------------------------------
// Output

func printResult(id string, result field.Element) {
	fmt.Println("##########################################")
	fmt.Println("######        MPC is finished       ######")
	fmt.Println("##########################################")
	fmt.Printf("%s: result is %s (mod %d)\n", id, result, field.Prime)
	fmt.Println()
}
