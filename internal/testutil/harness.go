package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes files (relative name -> content) into a fresh temporary
// directory and returns its path.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// PlatformHCL is PlatformConfig in the platform file format.
const PlatformHCL = `
platform "s7" {
  qubit_number = 7
  creg_number  = 32
  cycle_time   = 20

  instruction "prepz" {
    type     = "none"
    duration = 40
  }
  instruction "x" {
    type     = "mw"
    duration = 20
  }
  instruction "y" {
    type     = "mw"
    duration = 20
  }
  instruction "x90" {
    opcode   = "x90"
    type     = "mw"
    duration = 20
    arity    = 1
  }
  instruction "h" {
    type     = "mw"
    duration = 40
  }
  instruction "cz" {
    type     = "flux"
    duration = 40
    arity    = 2
  }
  instruction "cnot" {
    type     = "flux"
    duration = 80
    arity    = 2
  }
  instruction "sqf" {
    type     = "flux"
    duration = 40
  }
  instruction "measure" {
    opcode   = "measz"
    type     = "readout"
    duration = 80
  }

  buffer "mw" "flux" {
    time = 40
  }

  instrument "awg_0" {
    types  = ["mw"]
    qubits = [0, 1, 5, 6]
    mode   = "shared"
  }
  instrument "awg_1" {
    types  = ["mw"]
    qubits = [2, 3, 4]
    mode   = "shared"
  }
  instrument "flux" {
    types  = ["flux"]
    qubits = [0, 1, 2, 3, 4, 5, 6]
    mode   = "shared"
  }
  instrument "ro" {
    types  = ["readout"]
    qubits = [0, 1, 2, 3, 4, 5, 6]
    mode   = "shared"
  }

  topology {
    edge {
      id  = 0
      src = 0
      dst = 2
    }
    edge {
      id  = 1
      src = 0
      dst = 3
    }
    edge {
      id  = 2
      src = 1
      dst = 3
    }
    edge {
      id  = 3
      src = 1
      dst = 4
    }
    edge {
      id  = 4
      src = 2
      dst = 5
    }
    edge {
      id  = 5
      src = 3
      dst = 5
    }
    edge {
      id  = 6
      src = 3
      dst = 6
    }
    edge {
      id  = 7
      src = 4
      dst = 6
    }
    detune {
      edge   = 0
      qubits = [3]
    }
    detune {
      edge   = 4
      qubits = [0, 3]
    }
  }

  commute {
    enabled           = true
    control_unitaries = ["cz", "cnot"]
    target_commuting  = ["cnot"]
  }

  target "cc_light" {
    cz_mode = "manual"
  }
  target "cc" {}
}
`

// ProgramHCL is a program with a measured for loop over the platform in
// PlatformHCL.
const ProgramHCL = `
program "demo" {
  kernel "init" {
    gate "prepz" {
      qubits = [0]
    }
    gate "prepz" {
      qubits = [2]
    }
  }

  kernel "loop_start" {
    control    = "for_start"
    iterations = 3
  }

  kernel "loop" {
    gate "x" {
      qubits = [0]
    }
    gate "cz" {
      qubits = [0, 2]
    }
    wait {
      qubits = [0]
      cycles = 3
    }
    gate "measure" {
      qubits = [0]
      creg   = 0
    }
    classical "ldi" {
      cregs = [1]
      imm   = 5
    }
    nop {}
  }

  kernel "loop_end" {
    control = "for_end"
  }
}
`
