package explorer

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zeu5/wumpus-rl/policies"
	"github.com/zeu5/wumpus-rl/rl"
	"github.com/zeu5/wumpus-rl/util"
)

type Explorer struct {
	ResultFile string

	Result *rl.Result
	QTable *policies.QTable

	in  *bufio.Reader
	out io.Writer
}

// Create an explorer of a saved training result
func NewExplorer(resultFile string) (*Explorer, error) {
	result := &rl.Result{}
	if err := util.ReadJSON(resultFile, result); err != nil {
		return nil, err
	}
	return newExplorer(resultFile, result, os.Stdin, os.Stdout)
}

func newExplorer(resultFile string, result *rl.Result, in io.Reader, out io.Writer) (*Explorer, error) {
	if result.QTable == nil {
		return nil, errors.Errorf("%s has no q table", resultFile)
	}
	table, err := policies.QTableFrom(result.QTable, result.Training.StatesVisited)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", resultFile)
	}
	return &Explorer{
		ResultFile: resultFile,
		Result:     result,
		QTable:     table,
		in:         bufio.NewReader(in),
		out:        out,
	}, nil
}

// Example invocation - ./wumpus-rl explore results/result.json
func ExploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:  "explore [result_file]",
		Long: "Explore the q table, policy and path of a saved training result",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := NewExplorer(args[0])
			if err != nil {
				return err
			}

			exp.Interact()
			return nil
		},
	}
}
