package pairing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/model"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

// Claim consumes a submitted pairing code and marks the bound device
// paired. Failures surface the store's typed errors (not found / already
// used / expired) without side effects on the device.
func Claim(ctx context.Context, st store.Store, code string) (string, error) {
	doc, err := st.ConsumePairingCode(ctx, code)
	if err != nil {
		return "", err
	}

	var pc model.PairingCode
	if err := json.Unmarshal(doc, &pc); err != nil {
		return "", fmt.Errorf("malformed pairing code document: %w", err)
	}

	patch, _ := json.Marshal(map[string]any{
		"isPaired":           true,
		"isLinked":           true,
		"displayPairingCode": "",
	})
	if err := st.Put(ctx, store.DeviceKey(pc.DeviceID), patch, true); err != nil {
		return "", fmt.Errorf("could not mark device paired: %w", err)
	}

	log.Info().Str("deviceID", pc.DeviceID).Msg("[pairing] device paired")
	return pc.DeviceID, nil
}

// Unpair drops the device back to the unpaired state. The record is kept
// so the custom name survives a later re-pair; the display notices via its
// device subscription and returns to the pairing screen.
func Unpair(ctx context.Context, st store.Store, deviceID string) error {
	patch, _ := json.Marshal(map[string]any{
		"isPaired": false,
		"isLinked": false,
	})
	if err := st.Put(ctx, store.DeviceKey(deviceID), patch, true); err != nil {
		return fmt.Errorf("could not unpair device: %w", err)
	}
	log.Info().Str("deviceID", deviceID).Msg("[pairing] device unpaired")
	return nil
}
