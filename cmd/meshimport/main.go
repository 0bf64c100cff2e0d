// Command meshimport is the C bridge to the meshport importer.
//
// Build it as a shared library; the generated header declares the exports:
//
//	go build -buildmode=c-shared -o libmeshimport.so ./cmd/meshimport
//
// Handles are opaque uintptr_t values. Zero is never issued. Every handle
// returned by new_importer, valid or not, must be passed to
// delete_importer exactly once.
package main

/*
#include <stdint.h>
typedef uintptr_t importer_t;
*/
import "C"

import "unsafe"

func main() {}

//export new_importer
func new_importer(file *C.char) C.importer_t {
	path := ""
	if file != nil {
		path = C.GoString(file)
	}
	return C.importer_t(instance().open(path))
}

//export valid
func valid(h C.importer_t) C.int {
	return cbool(instance().valid(uint64(h)))
}

// no_trianges keeps the spelling existing hosts link against.
//
//export no_trianges
func no_trianges(h C.importer_t) C.int {
	return C.int(instance().triangleCount(uint64(h)))
}

//export no_triangles
func no_triangles(h C.importer_t) C.int {
	return C.int(instance().triangleCount(uint64(h)))
}

//export no_vertices
func no_vertices(h C.importer_t) C.int {
	return C.int(instance().vertexCount(uint64(h)))
}

// get_vertices assumes room for 3 × no_vertices floats.
//
//export get_vertices
func get_vertices(h C.importer_t, vertices *C.float) {
	b := instance()
	n := 3 * b.vertexCount(uint64(h))
	b.copyVertices(uint64(h), floats(vertices, n))
}

// get_normals assumes room for 3 × no_vertices floats.
//
//export get_normals
func get_normals(h C.importer_t, normals *C.float) {
	b := instance()
	n := 3 * b.vertexCount(uint64(h))
	b.copyNormals(uint64(h), floats(normals, n))
}

// get_indices assumes room for 3 × no_triangles ints.
//
//export get_indices
func get_indices(h C.importer_t, indices *C.int32_t) {
	b := instance()
	n := 3 * b.triangleCount(uint64(h))
	b.copyIndices(uint64(h), ints(indices, n))
}

//export copy_vertices
func copy_vertices(h C.importer_t, vertices *C.float, n C.int) C.int {
	if !bufferOK(unsafe.Pointer(vertices), n) {
		return -1
	}
	return C.int(instance().copyVertices(uint64(h), floats(vertices, int(n))))
}

//export copy_normals
func copy_normals(h C.importer_t, normals *C.float, n C.int) C.int {
	if !bufferOK(unsafe.Pointer(normals), n) {
		return -1
	}
	return C.int(instance().copyNormals(uint64(h), floats(normals, int(n))))
}

//export copy_indices
func copy_indices(h C.importer_t, indices *C.int32_t, n C.int) C.int {
	if !bufferOK(unsafe.Pointer(indices), n) {
		return -1
	}
	return C.int(instance().copyIndices(uint64(h), ints(indices, int(n))))
}

// error_string copies the load error into buf as a NUL-terminated string,
// truncated to n-1 bytes. It returns the untruncated length, 0 when there
// is no error, or -1 for an unknown handle.
//
//export error_string
func error_string(h C.importer_t, buf *C.char, n C.int) C.int {
	msg, ok := instance().errorString(uint64(h))
	if !ok {
		return -1
	}
	if buf != nil && n > 0 {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(n))
		copied := copy(dst[:len(dst)-1], msg)
		dst[copied] = 0
	}
	return C.int(len(msg))
}

//export delete_importer
func delete_importer(h C.importer_t) {
	instance().release(uint64(h))
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func bufferOK(p unsafe.Pointer, n C.int) bool {
	return n >= 0 && (p != nil || n == 0)
}

func floats(p *C.float, n int) []float32 {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(p)), n)
}

func ints(p *C.int32_t, n int) []int32 {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(p)), n)
}
