package cloudinary

import (
	"crypto/sha1"
	"fmt"
	"sort"
	"strings"
)

// SignParams は署名対象パラメータから Cloudinary 署名を計算します。
//
// 手順は Cloudinary の仕様に厳密に従います:
//  1. api_key と signature を署名対象から除外する
//  2. 残りをパラメータ名の辞書順にソートする
//  3. name=value を & で連結する
//  4. 末尾に API 秘密鍵をそのまま（区切りなしで）連結する
//  5. SHA-1 でハッシュし小文字16進で表現する
//
// ダイジェストが SHA-1 なのは Cloudinary 側の要求であり、
// 他のアルゴリズムに置き換えると署名検証に失敗します。
func SignParams(params map[string]string, apiSecret string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		if name == "api_key" || name == "signature" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+params[name])
	}

	toSign := strings.Join(pairs, "&") + apiSecret
	return fmt.Sprintf("%x", sha1.Sum([]byte(toSign)))
}
