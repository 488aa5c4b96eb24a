package explorer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zeu5/wumpus-rl/wumpus"
)

func (e *Explorer) readLine() (string, error) {
	line, err := e.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Runs the main interactive loop
func (e *Explorer) Interact() {
	fmt.Fprintf(e.out, "%s", e.header())
	for {
		fmt.Fprintf(e.out, "%s", e.prompt())

		optionS, err := e.readLine()
		if err != nil {
			fmt.Fprintln(e.out, "\nQuitting! Thank you")
			return
		}
		option, err := strconv.Atoi(optionS)
		if err != nil {
			fmt.Fprintln(e.out, "Invalid input! Try again")
			continue
		}
		fmt.Fprintln(e.out, "------------------------------------")
		switch option {
		case 1:
			fmt.Fprintf(e.out, "%s", e.getSummary())
		case 2:
			fmt.Fprintf(e.out, "Enter the state key: ")
			stateK, err := e.readLine()
			if err != nil {
				return
			}
			fmt.Fprintf(e.out, "%s", e.getQValues(stateK))
		case 3:
			fmt.Fprintf(e.out, "Enter the state key: ")
			stateK, err := e.readLine()
			if err != nil {
				return
			}
			fmt.Fprintf(e.out, "%s", e.getFullState(stateK))
		case 4:
			e.interactPath()
		case 5:
			fmt.Fprintln(e.out, "Quitting! Thank you")
			return
		default:
			fmt.Fprintln(e.out, "Wrong choice! Try again!")
		}
	}
}

func (e *Explorer) parseState(stateKey string) (int, bool) {
	state, err := strconv.Atoi(stateKey)
	if err != nil || !e.QTable.Has(state) {
		return 0, false
	}
	return state, true
}

func (e *Explorer) getSummary() string {
	t := e.Result.Training
	out := fmt.Sprintf("Algorithm: %s\nEpisodes: %d (horizon %d)\nFinal epsilon: %f\nStates visited: %d\nMean return: %.2f\n",
		t.Algorithm, t.Episodes, t.Horizon, t.FinalEpsilon, t.StatesVisited, t.MeanReturn)

	outcomes := make([]string, 0, len(t.Outcomes))
	for o := range t.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	out += "Outcomes:\n"
	for _, o := range outcomes {
		out += fmt.Sprintf("\t%s: %d\n", o, t.Outcomes[o])
	}

	stats := e.Result.PolicyStats
	out += "Greedy actions:\n"
	for _, a := range wumpus.AllActions {
		share := stats.ActionDistribution[a.String()]
		out += fmt.Sprintf("\t%s: %d (%.1f%%)\n", a, share.Count, share.Percentage)
	}
	v := stats.BestValues
	out += fmt.Sprintf("Best values: mean %.3f, std %.3f, min %.3f, max %.3f\n", v.Mean, v.Std, v.Min, v.Max)
	return out
}

func (e *Explorer) getQValues(stateKey string) string {
	state, ok := e.parseState(stateKey)
	if !ok {
		return "No such state in the q table\n"
	}
	best, _ := e.QTable.Best(state)
	values := e.QTable.Values(state)
	out := "Q values are:\n"
	for i, v := range values {
		marker := ""
		if wumpus.Action(i) == best {
			marker = " *"
		}
		out += fmt.Sprintf("%s: %f%s\n", wumpus.Action(i), v, marker)
	}
	return out
}

func (e *Explorer) getFullState(stateKey string) string {
	state, ok := e.parseState(stateKey)
	if !ok {
		return "No such state\n"
	}
	entry, ok := e.Result.Policy[state]
	if !ok || entry.Observation == nil {
		return "No observation recorded for the state\n"
	}
	return fmt.Sprintf("State Key: %d\nState:\n %s\n", state, entry.Observation.String())
}

func (e *Explorer) pathPrompt() string {
	return `
---------------------------------------------
Step(s) Prev(p) Last(l) Quit(q): `
}

func (e *Explorer) interactPath() {
	path := e.Result.OptimalPath
	if len(path) == 0 {
		fmt.Fprintln(e.out, "Empty path!")
		return
	}
	stepCount := 0
	for {
		p := path[stepCount]
		fmt.Fprintf(e.out, "Step %d/%d\nAction: %s\nPosition: %v\nDirection: %s\n", stepCount, len(path)-1, p.Action, p.Position, p.Direction)
		fmt.Fprintf(e.out, "%s", e.pathPrompt())
		option, err := e.readLine()
		if err != nil {
			return
		}
		fmt.Fprintln(e.out, "---------------------------------------------")
		switch option {
		case "s":
			if stepCount == len(path)-1 {
				fmt.Fprintln(e.out, "No more steps!")
				continue
			}
			stepCount += 1
		case "p":
			if stepCount == 0 {
				fmt.Fprintln(e.out, "No more steps!")
				continue
			}
			stepCount -= 1
		case "l":
			stepCount = len(path) - 1
		case "q":
			return
		default:
			fmt.Fprintln(e.out, "Invalid option! Try again.")
		}
	}
}

func (e *Explorer) header() string {
	return fmt.Sprintf(`
Welcome to the q table explorer!
Loaded %s with %d states
	`, e.ResultFile, e.QTable.Len())
}

func (e *Explorer) prompt() string {
	return `
------------------------------------
Select one of the following options:
1. Show training summary
2. Show QValues
3. Show full state
4. Walk the greedy path
5. Quit
Enter your choice: `
}
