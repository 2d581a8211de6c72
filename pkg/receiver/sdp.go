package receiver

import (
	"fmt"

	"github.com/pion/sdp/v3"
)

// ConfigFromSDP строит конфигурацию приёмника из SDP описания
// отправителя: берётся первая аудио секция (m=audio), её порт и
// connection address сессии или медиа уровня.
//
// При известном unicast адресе возвращается режим connected к нему;
// при отсутствующем или нулевом адресе (0.0.0.0) - режим bound на
// порту медиа секции, отправитель найдёт нас через handshake probe.
func ConfigFromSDP(raw []byte) (Config, error) {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal(raw); err != nil {
		return Config{}, fmt.Errorf("ошибка разбора SDP: %w", err)
	}

	audio := findAudioMedia(&desc)
	if audio == nil {
		return Config{}, fmt.Errorf("SDP не содержит аудио секции")
	}

	port := audio.MediaName.Port.Value
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("невалидный порт в аудио секции: %d", port)
	}

	addr := connectionAddress(&desc, audio)
	if addr == "" || addr == "0.0.0.0" {
		return Config{
			Mode:      ModeBound,
			LocalPort: port,
		}, nil
	}

	return Config{
		Mode:       ModeConnected,
		RemoteAddr: addr,
		RemotePort: port,
	}, nil
}

// findAudioMedia возвращает первую аудио секцию SDP
func findAudioMedia(desc *sdp.SessionDescription) *sdp.MediaDescription {
	for _, media := range desc.MediaDescriptions {
		if media.MediaName.Media == "audio" {
			return media
		}
	}
	return nil
}

// connectionAddress возвращает connection address медиа уровня,
// при его отсутствии - сессионного уровня
func connectionAddress(desc *sdp.SessionDescription, media *sdp.MediaDescription) string {
	if media.ConnectionInformation != nil && media.ConnectionInformation.Address != nil {
		return media.ConnectionInformation.Address.Address
	}
	if desc.ConnectionInformation != nil && desc.ConnectionInformation.Address != nil {
		return desc.ConnectionInformation.Address.Address
	}
	return ""
}
