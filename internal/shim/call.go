package shim

// Call carries the arguments of one hooked call in a shape the registry
// can judge. Hooks fill only the fields their entry reads; everything
// else stays zero.
type Call struct {
	// Path is the file argument of open, fopen, unlink, remove, chmod,
	// chown and the program path of execve.
	Path string
	// Command is the shell command of system and popen.
	Command string
	// Flags are the open(2) flags.
	Flags int
	// Mode is the stdio mode string of fopen and popen.
	Mode string
	// FileMode is the permission argument of chmod.
	FileMode uint32
	// Domain and Type describe a socket creation.
	Domain int
	Type   int
	// Family is the address family of a connect or bind target;
	// HasAddr records whether an address was given at all.
	Family  int
	HasAddr bool
	// Request is the ptrace request number.
	Request int
	// UID and GID serve setuid, setgid and chown.
	UID int
	GID int
}
