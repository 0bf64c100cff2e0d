package importer

import (
	"errors"
	"sync"
	"testing"
)

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry()
	path := writeFile(t, "tri.obj", triangleOBJ)

	h := r.Open(path, DefaultOptions())
	if h == 0 {
		t.Fatal("Open issued handle 0")
	}
	im, err := r.Get(h)
	if err != nil || !im.Valid() {
		t.Fatalf("Get(%d) = %v, %v", h, im, err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	if err := r.Release(h); err != nil {
		t.Fatalf("Release() = %v", err)
	}
	if err := r.Release(h); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("second Release() = %v, want ErrInvalidHandle", err)
	}
	if _, err := r.Get(h); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Get after release = %v, want ErrInvalidHandle", err)
	}
	if im.Valid() {
		t.Error("released importer still valid")
	}
	if _, err := r.Get(0); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Get(0) = %v, want ErrInvalidHandle", err)
	}
}

func TestRegistry_InvalidLoadStillIssuesHandle(t *testing.T) {
	r := NewRegistry()
	h := r.Open("does-not-exist.obj", DefaultOptions())
	im, err := r.Get(h)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if im.Valid() {
		t.Error("importer for missing file is valid")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	path := writeFile(t, "tri.obj", triangleOBJ)

	const workers = 8
	handles := make([]Handle, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = r.Open(path, DefaultOptions())
			im, err := r.Get(handles[i])
			if err != nil || im.VertexCount() != 3 {
				t.Errorf("worker %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[Handle]bool)
	for _, h := range handles {
		if seen[h] {
			t.Errorf("handle %d issued twice", h)
		}
		seen[h] = true
	}

	if err := r.CloseAll(); err != nil {
		t.Errorf("CloseAll() = %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() after CloseAll = %d", r.Len())
	}
}

func TestRegistry_CloseAllReportsClosedImporters(t *testing.T) {
	r := NewRegistry()
	path := writeFile(t, "tri.obj", triangleOBJ)
	r.Open(path, DefaultOptions())
	h := r.Open(path, DefaultOptions())

	im, err := r.Get(h)
	if err != nil {
		t.Fatal(err)
	}
	if err := im.Close(); err != nil {
		t.Fatal(err)
	}

	err = r.CloseAll()
	if !errors.Is(err, ErrClosed) {
		t.Errorf("CloseAll() = %v, want ErrClosed", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() after CloseAll = %d", r.Len())
	}
}
