package emulation

// Engine ABI: exported entry points of the emulator wasm build.
// All values crossing this boundary are integers, either primitives or
// addresses into the engine's linear memory. String arguments are written
// into guest memory as null-terminated UTF-8 and passed by address; string
// results come back as an address the caller must read once and free.
//
// Signatures by role:
//
//	create_emulator(configAddr, verbosity) -> handle
//	destroy_emulator(handle)
//	run_get_method(paramsJsonAddr, stackAddr, configAddr) -> resultAddr
//	emulate(handle, libsAddrOrZero, shardAccountAddr, messageAddr, paramsJsonAddr) -> resultAddr
//	version() -> resultAddr
//	malloc(size) -> addr        (0 means allocation failure)
//	free(addr)
const (
	FuncCreateEmulator  = "create_emulator"
	FuncDestroyEmulator = "destroy_emulator"
	FuncRunGetMethod    = "run_get_method"
	FuncEmulate         = "emulate"
	FuncVersion         = "version"
	FuncMalloc          = "malloc"
	FuncFree            = "free"
)

// EngineExports lists the known engine entry points. Artifact manifests may
// declare any non-empty subset of these names, and instances pre-resolve the
// declared functions at instantiation time.
var EngineExports = []string{
	FuncCreateEmulator,
	FuncDestroyEmulator,
	FuncRunGetMethod,
	FuncEmulate,
	FuncVersion,
	FuncMalloc,
	FuncFree,
}
