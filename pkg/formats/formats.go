// Package formats decodes 3D model files into scene graphs.
//
// glTF 2.0 (.gltf with external or embedded buffers, and binary .glb) is
// read with github.com/qmuntal/gltf. Wavefront OBJ is parsed directly since
// only vertex positions and face groups are needed for bounds.
package formats
