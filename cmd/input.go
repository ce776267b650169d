package cmd

import (
	"io"
	"os"

	"gfmclip/pkg/errors"
)

// readInput returns the contents of the file named by args, or stdin when
// there is none or it is "-".
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.NewWithError(errors.ExitCodeFileOperation, errors.ErrMsgReadInput, err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.FileError(args[0], err)
	}
	return string(data), nil
}
