package plugin

import (
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Interface contract between host and guest.
//
// Strings cross the sandbox boundary through the guest's linear memory.
// Guest-produced strings come back as a u64 packing (pointer << 32 | length);
// host-produced strings are copied into a buffer the guest hands out via
// its allocator export. Structured values (plugin metadata, the run
// envelope) are JSON on the wire.
//
// Guest exports:
//
//	memory                          exported linear memory
//	plugin_alloc(size: i32) -> i32  allocate a host-writable buffer
//	plugin_init() -> i64            packed ptr/len of the JSON Info
//	plugin_run(ptr: i32, len: i32)  JSON run envelope {command, args}
//
// Host imports (module "plugshell"):
//
//	log(level: i32, ptr: i32, len: i32)
//
// A module whose exports do not structurally match this table is rejected
// outright; there is no best-effort partial binding.
const (
	// HostModule is the import module name under which the host
	// capability is bound into every sandbox.
	HostModule = "plugshell"

	// ExportMemory through ExportRun are the guest export names.
	ExportMemory = "memory"
	ExportAlloc  = "plugin_alloc"
	ExportInit   = "plugin_init"
	ExportRun    = "plugin_run"

	// ImportLog is the only capability a guest receives.
	ImportLog = "log"

	// guestInitExport is the optional reactor-style initializer some
	// toolchains emit. It runs before init when present.
	guestInitExport = "_initialize"
)

// runEnvelope is the JSON payload of a plugin_run call.
type runEnvelope struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

func encodeRunEnvelope(command string, args []string) ([]byte, error) {
	if args == nil {
		args = []string{}
	}
	return json.Marshal(runEnvelope{Command: command, Args: args})
}

// packedRegion splits the u64 a guest returns from plugin_init into the
// pointer and length of a region of guest memory.
func packedRegion(v uint64) (ptr, size uint32) {
	return uint32(v >> 32), uint32(v)
}

// exportShape describes the required signature of a guest function export.
type exportShape struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
}

var requiredExports = []exportShape{
	{ExportAlloc, []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}},
	{ExportInit, nil, []api.ValueType{api.ValueTypeI64}},
	{ExportRun, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil},
}

// checkContract verifies that a compiled module structurally satisfies the
// interface contract: every required export exists with exactly the
// declared signature, and the module exports its linear memory. Import
// mismatches surface later as link errors during instantiation.
func checkContract(compiled wazero.CompiledModule) error {
	if _, ok := compiled.ExportedMemories()[ExportMemory]; !ok {
		return fmt.Errorf("module does not export %q", ExportMemory)
	}
	exports := compiled.ExportedFunctions()
	for _, want := range requiredExports {
		def, ok := exports[want.name]
		if !ok {
			return fmt.Errorf("module does not export %q", want.name)
		}
		if !valueTypesEqual(def.ParamTypes(), want.params) || !valueTypesEqual(def.ResultTypes(), want.results) {
			return fmt.Errorf("export %q has signature %s, want %s",
				want.name,
				signatureString(def.ParamTypes(), def.ResultTypes()),
				signatureString(want.params, want.results))
		}
	}
	return nil
}

func valueTypesEqual(got, want []api.ValueType) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func signatureString(params, results []api.ValueType) string {
	str := func(ts []api.ValueType) string {
		s := "("
		for i, t := range ts {
			if i > 0 {
				s += ", "
			}
			s += api.ValueTypeName(t)
		}
		return s + ")"
	}
	return str(params) + " -> " + str(results)
}
