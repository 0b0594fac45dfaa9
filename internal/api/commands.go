package api

import (
	"fmt"
	"strconv"
	"strings"
)

// callTimeoutMillis is passed to every remote method as its timeout argument.
const callTimeoutMillis = 10000

// Command is one built-in "<group>.<name>" command.
type Command struct {
	Name        string
	Method      string
	Description string
	Params      []string
}

// Group maps a command prefix onto a service class.
type Group struct {
	Name      string
	ClassName string
	Commands  []Command
}

// Groups is the built-in command table, in help order.
var Groups = []Group{
	{Name: "resmon", ClassName: ClassResourceMonitor, Commands: []Command{
		{Name: "cpu", Method: "cpu", Description: "Get CPU resource monitoring information"},
		{Name: "gpu", Method: "gpu", Description: "Get GPU resource monitoring information"},
		{Name: "mem", Method: "memory", Description: "Get memory resource monitoring information"},
		{Name: "disk", Method: "disk", Description: "Get disk resource monitoring information"},
		{Name: "net", Method: "net", Description: "Get network resource monitoring information"},
		{Name: "gen", Method: "general", Description: "Get general resource monitoring information", Params: []string{"items"}},
	}},
	{Name: "store", ClassName: ClassStore, Commands: []Command{
		{Name: "general", Method: "general", Description: "Get storage general information"},
		{Name: "calcSpace", Method: "calculateSpace", Description: "Calculate storage space information"},
		{Name: "listDisk", Method: "listDisks", Description: "List disk information", Params: []string{"noHotSpare"}},
		{Name: "diskSmart", Method: "getDiskSmart", Description: "Get disk SMART information", Params: []string{"disk"}},
		{Name: "state", Method: "getState", Description: "Get storage state information", Params: []string{"name", "uuid"}},
	}},
	{Name: "sysinfo", ClassName: ClassSystemInfo, Commands: []Command{
		{Name: "getHostName", Method: "getHostName", Description: "Get host name information"},
		{Name: "getTrimVersion", Method: "getTrimVersion", Description: "Get Trim version information"},
		{Name: "getMachineId", Method: "getMachineId", Description: "Get machine ID information"},
		{Name: "getHardwareInfo", Method: "getHardwareInfo", Description: "Get hardware information"},
		{Name: "getUptime", Method: "getUptime", Description: "Get system uptime information"},
	}},
	{Name: "user", ClassName: ClassUser, Commands: []Command{
		{Name: "info", Method: "getInfo", Description: "Get user information"},
		{Name: "listUG", Method: "listUserGroups", Description: "List users and groups"},
		{Name: "groupUsers", Method: "groupUsers", Description: "Get user grouping information"},
		{Name: "isAdmin", Method: "isAdmin", Description: "Check if current user is admin"},
	}},
	{Name: "network", ClassName: ClassNetwork, Commands: []Command{
		{Name: "list", Method: "list", Description: "List network information", Params: []string{"type"}},
		{Name: "detect", Method: "detect", Description: "Detect network interface", Params: []string{"ifName"}},
	}},
	{Name: "file", ClassName: ClassFile, Commands: []Command{
		{Name: "ls", Method: "list", Description: "List files and directories", Params: []string{"path"}},
		{Name: "mkdir", Method: "mkdir", Description: "Create directory", Params: []string{"path"}},
		{Name: "rm", Method: "remove", Description: "Remove files or directories", Params: []string{"files", "moveToTrashbin", "details"}},
	}},
	{Name: "sac", ClassName: ClassSAC, Commands: []Command{
		{Name: "upsStatus", Method: "upsStatus", Description: "Get UPS status information"},
	}},
}

var requiredParams = map[string]bool{"disk": true, "path": true, "ifName": true, "files": true}

// IsRequired reports whether the built-in param must be given.
func IsRequired(param string) bool { return requiredParams[param] }

// timeoutFirst lists the classes whose methods take the timeout as the first
// argument; all others take it last.
var timeoutFirst = map[string]bool{
	ClassResourceMonitor: true,
	ClassUser:            true,
	ClassSystemInfo:      true,
	ClassSAC:             true,
}

// MissingParamError reports a required param that was not given.
type MissingParamError struct {
	Param string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("--%s is required for this command", e.Param)
}

// BuildArgs converts flag values into the positional arguments of the remote
// method, in the order the command declares them, plus the timeout.
// Params absent from values are skipped.
func BuildArgs(className string, cmd Command, values map[string]string) ([]any, error) {
	args := make([]any, 0, len(cmd.Params)+1)
	for _, p := range cmd.Params {
		raw, ok := values[p]
		if !ok || raw == "" {
			if IsRequired(p) {
				return nil, &MissingParamError{Param: p}
			}
			continue
		}

		var value any = raw
		switch p {
		case "files", "items":
			parts := strings.Split(raw, ",")
			list := make([]any, 0, len(parts))
			for _, s := range parts {
				list = append(list, strings.TrimSpace(s))
			}
			value = list
		case "noHotSpare", "moveToTrashbin":
			if raw == "false" {
				value = false
			}
		case "type":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("--type must be an integer: %w", err)
			}
			value = n
		}
		args = append(args, value)
	}

	if timeoutFirst[className] {
		return append([]any{callTimeoutMillis}, args...), nil
	}
	return append(args, callTimeoutMillis), nil
}
