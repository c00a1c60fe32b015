//go:build darwin

package recorder

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AVFoundation -framework Foundation
#import <AVFoundation/AVFoundation.h>

static int mic_authorization_status(void) {
	return (int)[AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
}

// Blocks until the user answers the consent prompt.
static int mic_request_access(void) {
	__block BOOL granted = NO;
	dispatch_semaphore_t sem = dispatch_semaphore_create(0);
	[AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL ok) {
		granted = ok;
		dispatch_semaphore_signal(sem);
	}];
	dispatch_semaphore_wait(sem, DISPATCH_TIME_FOREVER);
	return granted ? 1 : 0;
}
*/
import "C"

import "context"

const permissionHint = "Enable in System Settings → Privacy & Security → Microphone"

// SystemPermissions resolves capture access through AVFoundation. A denied
// microphone still opens in CoreAudio and delivers silence, so the TCC
// status is the only reliable answer.
type SystemPermissions struct{}

func (SystemPermissions) Status() PermissionState {
	return authorizationState(int(C.mic_authorization_status()))
}

// Request shows the consent prompt and waits for the answer or ctx.
func (SystemPermissions) Request(ctx context.Context) bool {
	granted := make(chan bool, 1)
	go func() {
		granted <- C.mic_request_access() == 1
	}()
	select {
	case ok := <-granted:
		return ok
	case <-ctx.Done():
		return false
	}
}
