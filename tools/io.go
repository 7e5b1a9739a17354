package tools

import (
	"os"

	"github.com/golang/glog"
)

// Reads a file. A missing file is not an error: it is reported through the boolean.
func ReadFileIfExists(filePath string) ([]byte, bool, error) {
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func DirectoryExists(directory string) bool {
	info, err := os.Stat(directory)
	if err != nil {
		if !os.IsNotExist(err) {
			glog.Warningf("cannot stat %s: %v", directory, err)
		}
		return false
	}
	return info.IsDir()
}
