/******************************************************************************
*
*  Copyright 2018 Stefan Majewsky <majewsky@gmx.net>
*
*  Licensed under the Apache License, Version 2.0 (the "License");
*  you may not use this file except in compliance with the License.
*  You may obtain a copy of the License at
*
*      http://www.apache.org/licenses/LICENSE-2.0
*
*  Unless required by applicable law or agreed to in writing, software
*  distributed under the License is distributed on an "AS IS" BASIS,
*  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*  See the License for the specific language governing permissions and
*  limitations under the License.
*
******************************************************************************/

package swiftblob

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"regexp"
)

const handleAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const handleSeedLength = 20

var handleRx = regexp.MustCompile(`^[0-9a-zA-Z]{2}/[0-9a-zA-Z]{2}/[0-9a-zA-Z]{16}$`)

//ContainerName returns the name of the container that holds the object with
//the given handle. Objects are spread over up to 256 containers by appending
//the first two hex digits of the handle's MD5 hash to the prefix. For example:
//
//    swiftblob.ContainerName("phab", "ab/cd/ef01234567890123") //returns "phab-41"
//
//The container is never stored anywhere, so this mapping must not change.
func ContainerName(prefix, handle string) string {
	sum := md5.Sum([]byte(handle))
	return prefix + "-" + hex.EncodeToString(sum[:1])
}

//ObjectPath returns the container name and the object name (which is the
//handle itself) joined together with a slash.
//
//    swiftblob.ObjectPath("phab", "ab/cd/ef01234567890123") //returns "phab-41/ab/cd/ef01234567890123"
func ObjectPath(prefix, handle string) string {
	return ContainerName(prefix, handle) + "/" + handle
}

//NewHandle generates a handle for a new object. The handle consists of 20
//random alphanumeric characters, split into directories like "ab/cd/ef..." to
//make large numbers of objects more browsable with Swift tooling.
func NewHandle() (string, error) {
	seed, err := randomCharacters(handleSeedLength)
	if err != nil {
		return "", err
	}
	return seed[0:2] + "/" + seed[2:4] + "/" + seed[4:], nil
}

//ValidHandle checks whether the given string looks like a handle generated by
//NewHandle().
func ValidHandle(handle string) bool {
	return handleRx.MatchString(handle)
}

func randomCharacters(count int) (string, error) {
	limit := big.NewInt(int64(len(handleAlphabet)))
	buf := make([]byte, count)
	for idx := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[idx] = handleAlphabet[n.Int64()]
	}
	return string(buf), nil
}
