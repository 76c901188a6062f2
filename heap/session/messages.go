package session

import (
	"fmt"
	"strings"

	"github.com/joshuapare/blockalloc/internal/txlog"
)

const (
	msgRetryAfterCompact = "Not enough memory for allocation as of now. Trying after eliminating any present fragmentation."
	msgStillOutOfMemory  = "Error: Still not enough memory for allocation."
	msgUnknownOperation  = "Error: Unknown transaction type."
	msgEmptyName         = "Variable name cannot be empty."
)

// messages renders the lines written for r. An empty string is a blank line.
func messages(r Result) []string {
	tx := r.Tx
	switch r.Status {
	case StatusMalformed:
		return []string{"Error: " + tx.Err.Error()}
	case StatusFailed:
		return []string{"Error: " + r.Err.Error()}
	}

	switch tx.Op {
	case txlog.OpAllocate:
		return allocateMessages(r)

	case txlog.OpFree:
		switch r.Status {
		case StatusOK:
			return []string{"Deallocated memory for variable " + tx.Name}
		case StatusRefDecremented:
			return []string{"Reference count decreased by one for the block referred by " + tx.Name}
		default:
			return []string{fmt.Sprintf("Error: Variable %s is not allocated.", tx.Name)}
		}

	case txlog.OpReference:
		switch r.Status {
		case StatusOK:
			return []string{fmt.Sprintf("Reference: %s is now referring to the same block as %s", tx.Name, tx.Target)}
		case StatusDuplicate:
			return []string{fmt.Sprintf("Error: %s already refers to a block.", tx.Name), ""}
		default:
			return []string{fmt.Sprintf("Error: %s does not refer to any block.", tx.Target), ""}
		}

	case txlog.OpPrint:
		return nil

	default:
		return []string{msgUnknownOperation}
	}
}

func allocateMessages(r Result) []string {
	tx := r.Tx
	var lines []string
	if r.Retried {
		lines = append(lines, msgRetryAfterCompact, "")
	}

	switch r.Status {
	case StatusOK:
		lines = append(lines, fmt.Sprintf("Allocated %d units for variable %s at address %d", tx.Size, tx.Name, r.Start))
	case StatusOutOfMemory:
		lines = append(lines, msgStillOutOfMemory)
	case StatusDuplicate:
		lines = append(lines,
			fmt.Sprintf("A variable with the same name as '%s' is already present.", tx.Name),
			"Deallocate it or change the current variable name to something else.")
	case StatusInvalidName:
		switch {
		case tx.Size <= 0:
			lines = append(lines, fmt.Sprintf("Allocation size must be positive: %d", tx.Size))
		case tx.Name == "":
			lines = append(lines, msgEmptyName)
		default:
			lines = append(lines, "Variable name cannot start with a digit. "+tx.Name)
		}
	}
	return lines
}

func writeLines(b *strings.Builder, lines []string) {
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
}
