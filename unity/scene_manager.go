// Package unity reads the active scene of a Unity player
package unity

import (
	"bytes"
	"fmt"

	"rorsplit/process"
	"rorsplit/signature"
)

const (
	PlayerModule = "UnityPlayer.dll"

	// ScanWindow is how far from the module base the signature is searched
	ScanWindow = 0x2000000

	// the rip-relative operand of the mov that loads the manager sits this
	// far into the match
	operandOffset = 7

	activeSceneOffset = 0x48
	assetPathOffset   = 0x10
	maxAssetPath      = 256

	// MaxSceneName is the length scene names are truncated to
	MaxSceneName = 16
)

// SceneManagerSignature matches sub rsp,20h; mov r?,[rip+disp32]; xor esi,esi
const SceneManagerSignature = "48 83 EC 20 4C 8B ?5 ???????? 33 F6"

var sceneManagerSig = signature.MustParse(SceneManagerSignature)

// SceneManager tracks the player's SceneManager singleton. It is located by
// signature because the player exposes no symbol for it.
type SceneManager struct {
	proc    process.Process
	address process.ProcessMemoryAddress
}

// NewSceneManager locates the SceneManager pointer in the player module
func NewSceneManager(proc process.Process) (*SceneManager, error) {
	player, _, err := process.FindModule(proc, PlayerModule)
	if err != nil {
		return nil, err
	}
	return NewSceneManagerAt(proc, player)
}

// NewSceneManagerAt scans the module loaded at base
func NewSceneManagerAt(proc process.Process, base process.ProcessMemoryAddress) (*SceneManager, error) {
	hit, err := sceneManagerSig.Scan(proc, base, ScanWindow)
	if err != nil {
		return nil, err
	}

	operand := hit.Add(operandOffset)
	disp, err := process.Read[int32](proc, operand)
	if err != nil {
		return nil, fmt.Errorf("read SceneManager displacement: %w", err)
	}

	return &SceneManager{proc: proc, address: operand.Add(4).AddSigned(int64(disp))}, nil
}

// Address is the static holding the SceneManager pointer
func (sm *SceneManager) Address() process.ProcessMemoryAddress {
	return sm.address
}

func (sm *SceneManager) currentSceneAddress() (process.ProcessMemoryAddress, error) {
	manager, err := process.ReadPointer(sm.proc, sm.address)
	if err != nil {
		return 0, err
	}
	return process.ReadPointer(sm.proc, manager.Add(activeSceneOffset))
}

// CurrentScenePath returns the asset path of the active scene,
// e.g. "Assets/RoR2/Scenes/golemplains.unity"
func (sm *SceneManager) CurrentScenePath() (string, error) {
	scene, err := sm.currentSceneAddress()
	if err != nil {
		return "", err
	}
	path, err := process.ReadPointer(sm.proc, scene.Add(assetPathOffset))
	if err != nil {
		return "", err
	}
	return process.ReadCString(sm.proc, path, maxAssetPath)
}

// CurrentSceneName returns the file name of the active scene without its
// extension, truncated to MaxSceneName bytes. It fails during scene loads,
// when the player has no active scene.
func (sm *SceneManager) CurrentSceneName() (string, error) {
	path, err := sm.CurrentScenePath()
	if err != nil {
		return "", err
	}
	return SceneName(path), nil
}

// SceneName reduces an asset path to the scene name
func SceneName(path string) string {
	name := []byte(path)
	if i := bytes.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := bytes.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if len(name) > MaxSceneName {
		name = name[:MaxSceneName]
	}
	return string(name)
}
